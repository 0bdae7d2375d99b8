package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/data/graph"
	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/http/response"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
	"github.com/tutoriq/tutoriq-backend/internal/platform/neo4jdb"
)

// SyncHandler serves the curriculum and identity feeds pushed by upstream
// services. Postgres is the source of truth; the neo4j prerequisite mirror
// is refreshed best-effort after the relational write commits.
type SyncHandler struct {
	log   *logger.Logger
	db    *gorm.DB
	graph *neo4jdb.Client

	concepts repos.ConceptRepo
	edges    repos.ConceptEdgeRepo
	goals    repos.LearningGoalRepo
	students repos.StudentProfileRepo
	mastery  repos.ConceptMasteryRepo
}

func NewSyncHandler(
	log *logger.Logger,
	db *gorm.DB,
	graphClient *neo4jdb.Client,
	concepts repos.ConceptRepo,
	edges repos.ConceptEdgeRepo,
	goals repos.LearningGoalRepo,
	students repos.StudentProfileRepo,
	mastery repos.ConceptMasteryRepo,
) *SyncHandler {
	return &SyncHandler{
		log:      log.With("handler", "SyncHandler"),
		db:       db,
		graph:    graphClient,
		concepts: concepts,
		edges:    edges,
		goals:    goals,
		students: students,
		mastery:  mastery,
	}
}

type conceptPayload struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain"`
	GradeLevel  string `json:"grade_level"`
	Difficulty  int    `json:"difficulty"`
}

type edgePayload struct {
	FromCode string `json:"from_code"`
	ToCode   string `json:"to_code"`
}

type conceptSyncRequest struct {
	Concepts []conceptPayload `json:"concepts"`
	// Edges replace the stored prerequisite edges among the synced codes.
	Edges []edgePayload `json:"edges,omitempty"`
}

// POST /internal/concepts/sync
func (h *SyncHandler) SyncConcepts(c *gin.Context) {
	var req conceptSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.Concepts) == 0 {
		response.RespondError(c, http.StatusBadRequest, "concepts_required", fmt.Errorf("empty concept list"))
		return
	}

	rows := make([]*domain.Concept, 0, len(req.Concepts))
	codes := make([]string, 0, len(req.Concepts))
	known := map[string]bool{}
	for i, p := range req.Concepts {
		code := strings.TrimSpace(p.Code)
		title := strings.TrimSpace(p.Title)
		if code == "" || title == "" {
			response.RespondError(c, http.StatusBadRequest, "invalid_concept",
				fmt.Errorf("concept %d: code and title are required", i))
			return
		}
		if known[code] {
			response.RespondError(c, http.StatusBadRequest, "invalid_concept",
				fmt.Errorf("concept %d: duplicate code %q", i, code))
			return
		}
		known[code] = true
		codes = append(codes, code)
		rows = append(rows, &domain.Concept{
			Code:        code,
			Title:       title,
			Description: strings.TrimSpace(p.Description),
			Domain:      strings.TrimSpace(p.Domain),
			GradeLevel:  strings.TrimSpace(p.GradeLevel),
			Difficulty:  clampDifficulty(p.Difficulty),
		})
	}

	edgeRows := make([]*domain.ConceptEdge, 0, len(req.Edges))
	for i, e := range req.Edges {
		from := strings.TrimSpace(e.FromCode)
		to := strings.TrimSpace(e.ToCode)
		if from == "" || to == "" || from == to {
			response.RespondError(c, http.StatusBadRequest, "invalid_edge",
				fmt.Errorf("edge %d: malformed pair %q -> %q", i, e.FromCode, e.ToCode))
			return
		}
		if !known[from] || !known[to] {
			response.RespondError(c, http.StatusBadRequest, "invalid_edge",
				fmt.Errorf("edge %d: endpoints must be in the synced concept set", i))
			return
		}
		edgeRows = append(edgeRows, &domain.ConceptEdge{FromCode: from, ToCode: to})
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := h.concepts.UpsertByCode(txc, rows); err != nil {
			return err
		}
		if err := h.edges.DeleteAmong(txc, codes); err != nil {
			return err
		}
		return h.edges.Upsert(txc, edgeRows)
	}); err != nil {
		h.log.Error("SyncConcepts failed", "error", err, "concepts", len(rows))
		response.RespondError(c, http.StatusInternalServerError, "concept_sync_failed", err)
		return
	}

	mirrored := true
	if err := graph.UpsertPrereqGraph(ctx, h.graph, h.log, rows, edgeRows); err != nil {
		h.log.Warn("prereq graph mirror failed (continuing)", "error", err, "concepts", len(rows))
		mirrored = false
	}

	response.RespondOK(c, gin.H{
		"concepts": len(rows),
		"edges":    len(edgeRows),
		"mirrored": mirrored,
	})
}

type masteryPayload struct {
	ConceptCode     string     `json:"concept_code"`
	Probability     float64    `json:"probability"`
	PracticeCount   int        `json:"practice_count,omitempty"`
	LastPracticedAt *time.Time `json:"last_practiced_at,omitempty"`
}

type masterySyncRequest struct {
	StudentID string           `json:"student_id"`
	Masteries []masteryPayload `json:"masteries"`
}

// POST /internal/mastery/sync
func (h *SyncHandler) SyncMastery(c *gin.Context) {
	var req masterySyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	studentID, err := uuid.Parse(strings.TrimSpace(req.StudentID))
	if err != nil || studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	if len(req.Masteries) == 0 {
		response.RespondError(c, http.StatusBadRequest, "masteries_required", fmt.Errorf("empty mastery list"))
		return
	}

	rows := make([]*domain.ConceptMastery, 0, len(req.Masteries))
	for i, m := range req.Masteries {
		code := strings.TrimSpace(m.ConceptCode)
		if code == "" {
			response.RespondError(c, http.StatusBadRequest, "invalid_mastery",
				fmt.Errorf("mastery %d: concept_code is required", i))
			return
		}
		if m.Probability < 0 || m.Probability > 1 {
			response.RespondError(c, http.StatusBadRequest, "invalid_probability",
				fmt.Errorf("mastery %d: probability %v outside [0,1]", i, m.Probability))
			return
		}
		if m.PracticeCount < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_mastery",
				fmt.Errorf("mastery %d: negative practice_count", i))
			return
		}
		rows = append(rows, &domain.ConceptMastery{
			StudentID:       studentID,
			ConceptCode:     code,
			Probability:     m.Probability,
			PracticeCount:   m.PracticeCount,
			LastPracticedAt: m.LastPracticedAt,
		})
	}

	if err := h.mastery.Upsert(dbctx.Context{Ctx: c.Request.Context()}, rows); err != nil {
		h.log.Error("SyncMastery failed", "error", err, "student_id", studentID, "rows", len(rows))
		response.RespondError(c, http.StatusInternalServerError, "mastery_sync_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"upserted": len(rows)})
}

type goalUpsertRequest struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category"`
	Domain           string   `json:"domain"`
	TargetGradeLevel string   `json:"target_grade_level"`
	RequiredConcepts []string `json:"required_concepts"`
}

// POST /internal/goals
func (h *SyncHandler) UpsertGoal(c *gin.Context) {
	var req goalUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		response.RespondError(c, http.StatusBadRequest, "goal_name_required", fmt.Errorf("empty goal name"))
		return
	}
	category, ok := parseGoalCategory(req.Category)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_category",
			fmt.Errorf("unknown category %q", req.Category))
		return
	}
	concepts := make([]string, 0, len(req.RequiredConcepts))
	for _, code := range req.RequiredConcepts {
		if trimmed := strings.TrimSpace(code); trimmed != "" {
			concepts = append(concepts, trimmed)
		}
	}
	if len(concepts) == 0 {
		response.RespondError(c, http.StatusBadRequest, "required_concepts_required",
			fmt.Errorf("goal %q lists no concepts", name))
		return
	}
	encoded, err := json.Marshal(concepts)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	row := &domain.LearningGoal{
		Name:             name,
		Description:      strings.TrimSpace(req.Description),
		Category:         category,
		Domain:           strings.TrimSpace(req.Domain),
		TargetGradeLevel: strings.TrimSpace(req.TargetGradeLevel),
		RequiredConcepts: encoded,
	}
	if err := h.goals.UpsertByName(dbctx.Context{Ctx: c.Request.Context()}, []*domain.LearningGoal{row}); err != nil {
		h.log.Error("UpsertGoal failed", "error", err, "name", name)
		response.RespondError(c, http.StatusInternalServerError, "goal_upsert_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"goal": row})
}

type studentUpsertRequest struct {
	StudentID   string `json:"student_id"`
	DisplayName string `json:"display_name"`
	GradeLevel  string `json:"grade_level"`
	Timezone    string `json:"timezone,omitempty"`
}

// POST /internal/students
func (h *SyncHandler) UpsertStudent(c *gin.Context) {
	var req studentUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	studentID, err := uuid.Parse(strings.TrimSpace(req.StudentID))
	if err != nil || studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		response.RespondError(c, http.StatusBadRequest, "display_name_required", fmt.Errorf("empty display name"))
		return
	}
	timezone := strings.TrimSpace(req.Timezone)
	if timezone == "" {
		timezone = "UTC"
	}

	row := &domain.StudentProfile{
		ID:          studentID,
		DisplayName: displayName,
		GradeLevel:  strings.TrimSpace(req.GradeLevel),
		Timezone:    timezone,
	}
	if err := h.students.UpsertByID(dbctx.Context{Ctx: c.Request.Context()}, []*domain.StudentProfile{row}); err != nil {
		h.log.Error("UpsertStudent failed", "error", err, "student_id", studentID)
		response.RespondError(c, http.StatusInternalServerError, "student_upsert_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"student": row})
}

func clampDifficulty(d int) int {
	if d < 1 {
		return 1
	}
	if d > 10 {
		return 10
	}
	return d
}

func parseGoalCategory(raw string) (domain.GoalCategory, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	category := domain.GoalCategory(normalized)
	switch category {
	case domain.GoalCategoryGradeProficiency, domain.GoalCategoryExamPrep,
		domain.GoalCategorySkillBuilding, domain.GoalCategoryCustom:
		return category, true
	}
	return "", false
}
