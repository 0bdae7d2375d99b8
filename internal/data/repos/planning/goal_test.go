package planning

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos/testutil"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
)

func TestLearningGoalRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewLearningGoalRepo(db, testutil.Logger(t))

	goal := &domain.LearningGoal{
		Name:             "Grade 5 Math Proficiency",
		Category:         domain.GoalCategoryGradeProficiency,
		Domain:           "math",
		TargetGradeLevel: "5",
		RequiredConcepts: datatypes.JSON([]byte(`["math.fractions","math.decimals"]`)),
	}
	created, err := repo.Create(dbc, []*domain.LearningGoal{goal})
	if err != nil || len(created) != 1 {
		t.Fatalf("Create: err=%v len=%d", err, len(created))
	}

	if got, err := repo.GetByID(dbc, goal.ID); err != nil || got == nil || got.Name != goal.Name {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByID(dbc, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID(unknown): got=%v err=%v", got, err)
	}

	if rows, err := repo.List(dbc); err != nil || len(rows) != 1 {
		t.Fatalf("List: err=%v len=%d", err, len(rows))
	}

	refreshed := &domain.LearningGoal{
		Name:             "Grade 5 Math Proficiency",
		Category:         domain.GoalCategoryGradeProficiency,
		Domain:           "math",
		TargetGradeLevel: "5",
		RequiredConcepts: datatypes.JSON([]byte(`["math.fractions","math.decimals","math.ratios"]`)),
	}
	if err := repo.UpsertByName(dbc, []*domain.LearningGoal{refreshed}); err != nil {
		t.Fatalf("UpsertByName: %v", err)
	}
	rows, err := repo.List(dbc)
	if err != nil || len(rows) != 1 {
		t.Fatalf("List after upsert: err=%v len=%d", err, len(rows))
	}
	if string(rows[0].RequiredConcepts) == string(goal.RequiredConcepts) {
		t.Fatalf("UpsertByName did not refresh required concepts")
	}

	if err := repo.UpdateFields(dbc, goal.ID, map[string]interface{}{"description": "updated"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
}

func TestStudentProfileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewStudentProfileRepo(db, testutil.Logger(t))

	studentID := uuid.New()
	profile := &domain.StudentProfile{ID: studentID, DisplayName: "Jo", GradeLevel: "4", Timezone: "UTC"}
	if err := repo.UpsertByID(dbc, []*domain.StudentProfile{profile}); err != nil {
		t.Fatalf("UpsertByID(create): %v", err)
	}

	if got, err := repo.GetByID(dbc, studentID); err != nil || got == nil || got.GradeLevel != "4" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}

	moved := &domain.StudentProfile{ID: studentID, DisplayName: "Jo", GradeLevel: "5", Timezone: "America/New_York"}
	if err := repo.UpsertByID(dbc, []*domain.StudentProfile{moved}); err != nil {
		t.Fatalf("UpsertByID(update): %v", err)
	}
	got, err := repo.GetByID(dbc, studentID)
	if err != nil || got == nil {
		t.Fatalf("GetByID after upsert: got=%v err=%v", got, err)
	}
	if got.GradeLevel != "5" || got.Timezone != "America/New_York" {
		t.Fatalf("UpsertByID did not apply: grade=%q tz=%q", got.GradeLevel, got.Timezone)
	}

	if got, err := repo.GetByID(dbc, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID(unknown): got=%v err=%v", got, err)
	}
}
