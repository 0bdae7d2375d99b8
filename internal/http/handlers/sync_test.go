package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
)

type fakeGoalRepo struct {
	listed   []*domain.LearningGoal
	upserted []*domain.LearningGoal
	err      error
}

func (f *fakeGoalRepo) Create(dbc dbctx.Context, rows []*domain.LearningGoal) ([]*domain.LearningGoal, error) {
	return rows, f.err
}
func (f *fakeGoalRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.LearningGoal, error) {
	return nil, f.err
}
func (f *fakeGoalRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.LearningGoal, error) {
	return nil, f.err
}
func (f *fakeGoalRepo) List(dbc dbctx.Context) ([]*domain.LearningGoal, error) {
	return f.listed, f.err
}
func (f *fakeGoalRepo) UpsertByName(dbc dbctx.Context, rows []*domain.LearningGoal) error {
	f.upserted = append(f.upserted, rows...)
	return f.err
}
func (f *fakeGoalRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return f.err
}

type fakeStudentRepo struct {
	upserted []*domain.StudentProfile
	err      error
}

func (f *fakeStudentRepo) Create(dbc dbctx.Context, rows []*domain.StudentProfile) ([]*domain.StudentProfile, error) {
	return rows, f.err
}
func (f *fakeStudentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.StudentProfile, error) {
	return nil, f.err
}
func (f *fakeStudentRepo) UpsertByID(dbc dbctx.Context, rows []*domain.StudentProfile) error {
	f.upserted = append(f.upserted, rows...)
	return f.err
}
func (f *fakeStudentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return f.err
}

type fakeMasteryRepo struct {
	upserted []*domain.ConceptMastery
	err      error
}

func (f *fakeMasteryRepo) GetByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*domain.ConceptMastery, error) {
	return nil, f.err
}
func (f *fakeMasteryRepo) GetByStudentAndCodes(dbc dbctx.Context, studentID uuid.UUID, codes []string) ([]*domain.ConceptMastery, error) {
	return nil, f.err
}
func (f *fakeMasteryRepo) Upsert(dbc dbctx.Context, rows []*domain.ConceptMastery) error {
	f.upserted = append(f.upserted, rows...)
	return f.err
}
func (f *fakeMasteryRepo) RecordPractice(dbc dbctx.Context, studentID uuid.UUID, conceptCode string, probability float64, practicedAt time.Time) error {
	return f.err
}

func syncTestRouter(t *testing.T, goals *fakeGoalRepo, students *fakeStudentRepo, mastery *fakeMasteryRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewSyncHandler(newTestLogger(t), nil, nil, nil, nil, goals, students, mastery)

	r := gin.New()
	internal := r.Group("/internal")
	internal.POST("/concepts/sync", h.SyncConcepts)
	internal.POST("/mastery/sync", h.SyncMastery)
	internal.POST("/goals", h.UpsertGoal)
	internal.POST("/students", h.UpsertStudent)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestClampDifficulty(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want int }{
		{in: -2, want: 1}, {in: 0, want: 1}, {in: 1, want: 1},
		{in: 7, want: 7}, {in: 10, want: 10}, {in: 42, want: 10},
	}
	for _, tc := range cases {
		if got := clampDifficulty(tc.in); got != tc.want {
			t.Fatalf("clampDifficulty(%d): got=%d want=%d", tc.in, got, tc.want)
		}
	}
}

func TestParseGoalCategory(t *testing.T) {
	t.Parallel()

	if got, ok := parseGoalCategory(" exam_prep "); !ok || got != domain.GoalCategoryExamPrep {
		t.Fatalf("expected EXAM_PREP, got %q ok=%t", got, ok)
	}
	if got, ok := parseGoalCategory("grade-proficiency"); !ok || got != domain.GoalCategoryGradeProficiency {
		t.Fatalf("expected hyphenated input to normalize, got %q ok=%t", got, ok)
	}
	if _, ok := parseGoalCategory("CRAM"); ok {
		t.Fatal("expected unknown category to fail")
	}
}

func TestSyncConceptsValidation(t *testing.T) {
	r := syncTestRouter(t, &fakeGoalRepo{}, &fakeStudentRepo{}, &fakeMasteryRepo{})

	cases := []struct {
		name string
		body string
	}{
		{name: "empty list", body: `{"concepts": []}`},
		{name: "blank code", body: `{"concepts": [{"code": " ", "title": "Fractions"}]}`},
		{name: "blank title", body: `{"concepts": [{"code": "math.frac", "title": ""}]}`},
		{name: "duplicate code", body: `{"concepts": [
			{"code": "math.frac", "title": "Fractions"},
			{"code": "math.frac", "title": "Fractions again"}]}`},
		{name: "self edge", body: `{"concepts": [{"code": "math.frac", "title": "Fractions"}],
			"edges": [{"from_code": "math.frac", "to_code": "math.frac"}]}`},
		{name: "edge outside set", body: `{"concepts": [{"code": "math.frac", "title": "Fractions"}],
			"edges": [{"from_code": "math.frac", "to_code": "math.dec"}]}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, r, "/internal/concepts/sync", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestSyncMasteryUpserts(t *testing.T) {
	mastery := &fakeMasteryRepo{}
	r := syncTestRouter(t, &fakeGoalRepo{}, &fakeStudentRepo{}, mastery)

	studentID := uuid.New()
	body := `{"student_id": "` + studentID.String() + `", "masteries": [
		{"concept_code": "math.frac", "probability": 0.91, "practice_count": 4},
		{"concept_code": "math.dec", "probability": 0.2}
	]}`
	rec := postJSON(t, r, "/internal/mastery/sync", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(mastery.upserted) != 2 {
		t.Fatalf("expected 2 upserted rows, got %d", len(mastery.upserted))
	}
	if mastery.upserted[0].StudentID != studentID || mastery.upserted[0].ConceptCode != "math.frac" {
		t.Fatalf("unexpected first row: %+v", mastery.upserted[0])
	}
	if mastery.upserted[0].Probability != 0.91 || mastery.upserted[0].PracticeCount != 4 {
		t.Fatalf("unexpected mastery values: %+v", mastery.upserted[0])
	}
}

func TestSyncMasteryRejectsOutOfRangeProbability(t *testing.T) {
	mastery := &fakeMasteryRepo{}
	r := syncTestRouter(t, &fakeGoalRepo{}, &fakeStudentRepo{}, mastery)

	body := `{"student_id": "` + uuid.NewString() + `", "masteries": [
		{"concept_code": "math.frac", "probability": 1.2}
	]}`
	rec := postJSON(t, r, "/internal/mastery/sync", body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if len(mastery.upserted) != 0 {
		t.Fatalf("expected no writes, got %d", len(mastery.upserted))
	}
}

func TestUpsertGoalEncodesConcepts(t *testing.T) {
	goals := &fakeGoalRepo{}
	r := syncTestRouter(t, goals, &fakeStudentRepo{}, &fakeMasteryRepo{})

	body := `{"name": "Master Grade 7 Math", "category": "grade-proficiency", "domain": "math",
		"target_grade_level": "grade_7", "required_concepts": [" math.frac ", "math.dec", ""]}`
	rec := postJSON(t, r, "/internal/goals", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(goals.upserted) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(goals.upserted))
	}
	row := goals.upserted[0]
	if row.Category != domain.GoalCategoryGradeProficiency {
		t.Fatalf("unexpected category: %q", row.Category)
	}
	var codes []string
	if err := json.Unmarshal(row.RequiredConcepts, &codes); err != nil {
		t.Fatalf("decode required concepts: %v", err)
	}
	if len(codes) != 2 || codes[0] != "math.frac" || codes[1] != "math.dec" {
		t.Fatalf("unexpected codes: %v", codes)
	}
}

func TestUpsertGoalValidation(t *testing.T) {
	goals := &fakeGoalRepo{}
	r := syncTestRouter(t, goals, &fakeStudentRepo{}, &fakeMasteryRepo{})

	cases := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"category": "EXAM_PREP", "required_concepts": ["a"]}`},
		{name: "bad category", body: `{"name": "G", "category": "CRAM", "required_concepts": ["a"]}`},
		{name: "no concepts", body: `{"name": "G", "category": "EXAM_PREP", "required_concepts": ["  "]}`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, r, "/internal/goals", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
	if len(goals.upserted) != 0 {
		t.Fatalf("expected no writes, got %d", len(goals.upserted))
	}
}

func TestUpsertStudentDefaultsTimezone(t *testing.T) {
	students := &fakeStudentRepo{}
	r := syncTestRouter(t, &fakeGoalRepo{}, students, &fakeMasteryRepo{})

	studentID := uuid.New()
	body := `{"student_id": "` + studentID.String() + `", "display_name": "Ada", "grade_level": "grade_7"}`
	rec := postJSON(t, r, "/internal/students", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(students.upserted) != 1 {
		t.Fatalf("expected 1 student, got %d", len(students.upserted))
	}
	row := students.upserted[0]
	if row.ID != studentID || row.Timezone != "UTC" {
		t.Fatalf("unexpected row: %+v", row)
	}
}
