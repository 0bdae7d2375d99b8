package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/data/graph"
	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner/estimator"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner/partitioner"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner/prompts"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner/sequencer"
	"github.com/tutoriq/tutoriq-backend/internal/observability"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
	"github.com/tutoriq/tutoriq-backend/internal/platform/neo4jdb"
	"github.com/tutoriq/tutoriq-backend/internal/platform/textgen"
)

const (
	maxActivePlansEnv    = "PLANNER_MAX_ACTIVE_PLANS"
	checkCadenceEnv      = "PLANNER_CHECK_EVERY_WEEKS"
	correctPerConceptEnv = "PLANNER_CORRECT_PER_CONCEPT"

	defaultMaxActivePlans = 3
)

type PlanBuildDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Goals    repos.LearningGoalRepo
	Students repos.StudentProfileRepo
	Concepts repos.ConceptRepo
	Edges    repos.ConceptEdgeRepo
	Mastery  repos.ConceptMasteryRepo
	Plans    repos.StudyPlanRepo
	Sessions repos.LearningSessionRepo

	// Graph and AI are optional collaborators; both degrade to fallbacks.
	Graph *neo4jdb.Client
	AI    textgen.Client
}

type PlanBuildInput struct {
	StudentID   uuid.UUID
	GoalID      uuid.UUID
	WeeklyHours float64
	TargetDate  *time.Time
}

type PlanBuildOutput struct {
	Plan            *domain.StudyPlan `json:"plan"`
	MasteredCount   int               `json:"mastered_count"`
	RemainingCount  int               `json:"remaining_count"`
	NarrativeSource string            `json:"narrative_source"`
}

// PlanBuild assembles and persists a study plan: it orders the goal's
// required concepts behind their prerequisites, estimates hours per concept
// for this student, partitions the remainder into weekly milestones, and
// attaches a narrative. External outages never fail the build; only invalid
// input does.
func PlanBuild(ctx context.Context, deps PlanBuildDeps, in PlanBuildInput) (PlanBuildOutput, error) {
	out := PlanBuildOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Goals == nil || deps.Students == nil ||
		deps.Concepts == nil || deps.Edges == nil || deps.Mastery == nil || deps.Plans == nil || deps.Sessions == nil {
		return out, fmt.Errorf("plan_build: missing deps")
	}
	if in.StudentID == uuid.Nil {
		return out, apierr.BadRequest("student_id_required", fmt.Errorf("plan_build: missing student_id"))
	}
	if in.GoalID == uuid.Nil {
		return out, apierr.BadRequest("goal_id_required", fmt.Errorf("plan_build: missing goal_id"))
	}
	if in.WeeklyHours <= 0 {
		return out, apierr.BadRequest("weekly_hours_invalid", fmt.Errorf("plan_build: weekly_hours must be positive"))
	}

	now := time.Now().UTC()

	var (
		goal      *domain.LearningGoal
		student   *domain.StudentProfile
		completed []*domain.LearningSession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		row, err := deps.Goals.GetByID(dbctx.Context{Ctx: gctx}, in.GoalID)
		if err != nil {
			return err
		}
		goal = row
		return nil
	})
	g.Go(func() error {
		row, err := deps.Students.GetByID(dbctx.Context{Ctx: gctx}, in.StudentID)
		if err != nil {
			return err
		}
		student = row
		return nil
	})
	g.Go(func() error {
		rows, err := deps.Sessions.ListCompletedByStudentSince(dbctx.Context{Ctx: gctx}, in.StudentID, now.Add(-estimator.VelocityWindow))
		if err != nil {
			return err
		}
		completed = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return out, err
	}
	if goal == nil {
		return out, apierr.NotFound("goal_not_found", fmt.Errorf("plan_build: goal %s not found", in.GoalID))
	}
	if student == nil {
		return out, apierr.NotFound("student_not_found", fmt.Errorf("plan_build: student %s not found", in.StudentID))
	}

	requiredCodes := decodeCodes(goal.RequiredConcepts)
	if len(requiredCodes) == 0 {
		return out, apierr.Unprocessable("goal_has_no_concepts", fmt.Errorf("plan_build: goal %s has no required concepts", in.GoalID))
	}

	var (
		concepts    []*domain.Concept
		masteryRows []*domain.ConceptMastery
	)
	g2, g2ctx := errgroup.WithContext(ctx)
	g2.Go(func() error {
		rows, err := deps.Concepts.GetByCodes(dbctx.Context{Ctx: g2ctx}, requiredCodes)
		if err != nil {
			return err
		}
		concepts = rows
		return nil
	})
	g2.Go(func() error {
		rows, err := deps.Mastery.GetByStudentAndCodes(dbctx.Context{Ctx: g2ctx}, in.StudentID, requiredCodes)
		if err != nil {
			return err
		}
		masteryRows = rows
		return nil
	})
	if err := g2.Wait(); err != nil {
		return out, err
	}

	if missing := len(requiredCodes) - len(concepts); missing > 0 {
		deps.Log.Warn("plan_build: goal references concepts missing from catalog (skipping)",
			"goal_id", in.GoalID, "missing", missing)
	}
	if len(concepts) == 0 {
		return out, apierr.Unprocessable("goal_has_no_concepts", fmt.Errorf("plan_build: no catalog concepts for goal %s", in.GoalID))
	}

	presentCodes := make([]string, 0, len(concepts))
	for _, c := range concepts {
		presentCodes = append(presentCodes, c.Code)
	}
	edges := loadPrereqEdges(ctx, deps, presentCodes)

	ordered := sequencer.Order(concepts, edges)
	mastery := masteryByCode(masteryRows)

	// Already-mastered concepts form the sequence prefix in learn order;
	// currentIndex starts past them so the first teach lands on new material.
	prefix := make([]*domain.Concept, 0, len(ordered))
	remaining := make([]*domain.Concept, 0, len(ordered))
	for _, c := range ordered {
		if mastery[c.Code] >= domain.MasteryThreshold {
			prefix = append(prefix, c)
			continue
		}
		remaining = append(remaining, c)
	}
	full := append(append(make([]*domain.Concept, 0, len(ordered)), prefix...), remaining...)

	velocity := estimator.ComputeVelocity(completed, envFloat(correctPerConceptEnv, estimator.DefaultCorrectPerConcept))
	studentRank := domain.GradeRank(student.GradeLevel)
	byCode := conceptsByCode(concepts)

	codes := make([]string, 0, len(full))
	hours := make([]float64, 0, len(full))
	items := make([]partitioner.Item, 0, len(remaining))
	totalHours := 0.0
	for _, c := range full {
		codes = append(codes, c.Code)
		if mastery[c.Code] >= domain.MasteryThreshold {
			hours = append(hours, 0)
			continue
		}
		h := estimator.EstimateHours(c.Difficulty, domain.GradeRank(c.GradeLevel), studentRank, velocity, mastery[c.Code])
		hours = append(hours, h)
		totalHours += h
		items = append(items, partitioner.Item{Code: c.Code, Title: c.Title, Hours: h})
	}
	totalHours = round2(totalHours)

	weeks := partitioner.Partition(items, in.WeeklyHours, envInt(checkCadenceEnv, partitioner.DefaultCheckEvery))

	weekCount := int(math.Ceil(totalHours / in.WeeklyHours))
	projected := now.AddDate(0, 0, weekCount*7)
	if in.TargetDate != nil && in.TargetDate.After(projected) {
		// A later target date is honored, never used to accelerate the plan.
		projected = in.TargetDate.UTC()
	}
	onTrack := in.TargetDate == nil || !projected.After(in.TargetDate.UTC())

	narrative, narrativeSource := buildNarrative(ctx, deps.AI, deps.Log, narrativeInput{
		Student:       student,
		Goal:          goal,
		ConceptTitles: titlesFor(codes, byCode),
		TotalHours:    totalHours,
		WeeklyHours:   in.WeeklyHours,
		WeekCount:     weekCount,
		Projected:     projected,
		TargetDate:    in.TargetDate,
	})

	plan := &domain.StudyPlan{
		StudentID:            in.StudentID,
		GoalID:               in.GoalID,
		Status:               domain.PlanStatusActive,
		ConceptSequence:      mustJSON(codes),
		ConceptHours:         mustJSON(hours),
		CurrentIndex:         len(prefix),
		WeeklyHours:          in.WeeklyHours,
		TotalEstimatedHours:  totalHours,
		Milestones:           mustJSON(weeks),
		Narrative:            narrative,
		TargetDate:           in.TargetDate,
		ProjectedEndDate:     projected,
		OnTrack:              onTrack,
		VelocityHoursPerWeek: observedWeeklyHours(completed),
		LastRecalculatedAt:   now,
	}

	maxActive := envInt(maxActivePlansEnv, defaultMaxActivePlans)
	if err := deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		activeCount, err := deps.Plans.CountActiveByStudent(dbc, in.StudentID)
		if err != nil {
			return err
		}
		if activeCount >= int64(maxActive) {
			return apierr.Conflict("active_plan_limit", fmt.Errorf("plan_build: student %s already has %d active plans", in.StudentID, activeCount))
		}
		_, err = deps.Plans.Create(dbc, []*domain.StudyPlan{plan})
		return err
	}); err != nil {
		return out, err
	}

	out.Plan = plan
	out.MasteredCount = len(prefix)
	out.RemainingCount = len(remaining)
	out.NarrativeSource = narrativeSource
	return out, nil
}

// loadPrereqEdges prefers the graph mirror and falls back to the relational
// edge table when the mirror is absent or unreachable.
func loadPrereqEdges(ctx context.Context, deps PlanBuildDeps, codes []string) []*domain.ConceptEdge {
	rows, err := graph.PrereqEdgesAmong(ctx, deps.Graph, deps.Log, codes)
	if err != nil {
		deps.Log.Warn("plan_build: prereq graph unavailable (falling back to relational edges)", "error", err)
		rows = nil
	}
	if rows != nil {
		return rows
	}
	fallback, err := deps.Edges.EdgesAmong(dbctx.Context{Ctx: ctx}, codes)
	if err != nil {
		deps.Log.Warn("plan_build: relational edge lookup failed (ordering without prerequisites)", "error", err)
		return nil
	}
	return fallback
}

type narrativeInput struct {
	Student       *domain.StudentProfile
	Goal          *domain.LearningGoal
	ConceptTitles []string
	TotalHours    float64
	WeeklyHours   float64
	WeekCount     int
	Projected     time.Time
	TargetDate    *time.Time
}

func buildNarrative(ctx context.Context, ai textgen.Client, log *logger.Logger, in narrativeInput) (string, string) {
	if narrative, ok := aiNarrative(ctx, ai, log, in); ok {
		return narrative, "generated"
	}
	if m := observability.Current(); m != nil {
		m.IncTextGenFallback("plan_narrative")
	}
	return fallbackNarrative(in), "template"
}

func aiNarrative(ctx context.Context, ai textgen.Client, log *logger.Logger, in narrativeInput) (string, bool) {
	if ai == nil {
		return "", false
	}
	targetDate := ""
	if in.TargetDate != nil {
		targetDate = fmtDate(*in.TargetDate)
	}
	prompt, err := prompts.Build(prompts.PromptPlanNarrative, prompts.Input{
		StudentName:     in.Student.DisplayName,
		GradeLevel:      in.Student.GradeLevel,
		GoalName:        in.Goal.Name,
		GoalCategory:    string(in.Goal.Category),
		GoalDescription: in.Goal.Description,
		Domain:          in.Goal.Domain,
		ConceptTitles:   joinWithLimit(in.ConceptTitles, ", ", 12),
		ConceptCount:    fmtInt(len(in.ConceptTitles)),
		TotalHours:      fmtHours(in.TotalHours),
		WeeklyHours:     fmtHours(in.WeeklyHours),
		WeekCount:       fmtInt(in.WeekCount),
		ProjectedDate:   fmtDate(in.Projected),
		TargetDate:      targetDate,
	})
	if err != nil {
		log.Warn("plan_build: narrative prompt build failed (using template)", "error", err)
		return "", false
	}
	obj, err := ai.GenerateJSON(ctx, prompt.System, prompt.User, prompt.SchemaName, prompt.Schema)
	if err != nil {
		log.Warn("plan_build: narrative generation failed (using template)", "error", err)
		return "", false
	}
	narrative, _ := obj["narrative"].(string)
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return "", false
	}
	return narrative, true
}

func fallbackNarrative(in narrativeInput) string {
	weeks := in.WeekCount
	if weeks < 1 {
		weeks = 1
	}
	return fmt.Sprintf(
		"This plan works toward %s: %d concepts over about %d weeks, around %s hours of study at %s hours per week. Projected finish is %s. Stick with the weekly milestones and check in after each one.",
		in.Goal.Name, len(in.ConceptTitles), weeks, fmtHours(in.TotalHours), fmtHours(in.WeeklyHours), fmtDate(in.Projected),
	)
}

// observedWeeklyHours averages completed study hours over the velocity
// window, giving the plan's hours-per-week pacing signal.
func observedWeeklyHours(sessions []*domain.LearningSession) float64 {
	var seconds int64
	for _, s := range sessions {
		if s == nil {
			continue
		}
		seconds += int64(s.DurationSeconds)
	}
	weeks := estimator.VelocityWindow.Hours() / (24 * 7)
	if weeks <= 0 {
		return 0
	}
	return round2(hoursFromSeconds(seconds) / weeks)
}

func decodeCodes(raw datatypes.JSON) []string {
	var codes []string
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &codes)
	}
	out := make([]string, 0, len(codes))
	seen := map[string]bool{}
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
