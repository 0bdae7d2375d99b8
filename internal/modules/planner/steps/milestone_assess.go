package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/clients/redis"
	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
	"github.com/tutoriq/tutoriq-backend/internal/platform/textgen"
)

type MilestoneAssessDeps struct {
	Log      *logger.Logger
	Plans    repos.StudyPlanRepo
	Results  repos.MilestoneResultRepo
	Concepts repos.ConceptRepo
	Sessions redis.MilestoneSessionStore
	AI       textgen.Client
}

type MilestoneAssessInput struct {
	StudentID  uuid.UUID
	PlanID     uuid.UUID
	WeekNumber int
}

// AssessmentOptionView is a learner-facing option; it never exposes which
// option is correct.
type AssessmentOptionView struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type AssessmentQuestionView struct {
	ID          string                 `json:"id"`
	ConceptCode string                 `json:"concept_code"`
	Text        string                 `json:"text"`
	Options     []AssessmentOptionView `json:"options"`
}

type MilestoneAssessOutput struct {
	State      domain.MilestoneState    `json:"state"`
	WeekNumber int                      `json:"week_number"`
	Questions  []AssessmentQuestionView `json:"questions"`
	StartedAt  time.Time                `json:"started_at"`
	Resumed    bool                     `json:"resumed"`
}

// MilestoneAssessStart opens (or resumes) the week's assessment attempt.
// Generation moves the week NOT_STARTED to IN_PROGRESS; an already
// evaluated week is rejected because results are immutable. Question
// generation never fails the start: degraded weeks get template questions.
func MilestoneAssessStart(ctx context.Context, deps MilestoneAssessDeps, in MilestoneAssessInput) (MilestoneAssessOutput, error) {
	out := MilestoneAssessOutput{}
	if deps.Log == nil || deps.Plans == nil || deps.Results == nil || deps.Concepts == nil || deps.Sessions == nil {
		return out, fmt.Errorf("milestone_assess: missing deps")
	}
	if in.StudentID == uuid.Nil || in.PlanID == uuid.Nil {
		return out, apierr.BadRequest("plan_id_required", fmt.Errorf("milestone_assess: missing ids"))
	}
	if in.WeekNumber < 1 {
		return out, apierr.BadRequest("week_number_invalid", fmt.Errorf("milestone_assess: week_number must be >= 1"))
	}
	out.WeekNumber = in.WeekNumber

	dbc := dbctx.Context{Ctx: ctx}
	plan, err := deps.Plans.GetByIDForStudent(dbc, in.PlanID, in.StudentID)
	if err != nil {
		return out, err
	}
	if plan == nil {
		return out, apierr.NotFound("plan_not_found", fmt.Errorf("milestone_assess: plan %s not found", in.PlanID))
	}

	existingResult, err := deps.Results.GetByPlanAndWeek(dbc, in.PlanID, in.WeekNumber)
	if err != nil {
		return out, err
	}
	if existingResult != nil {
		return out, apierr.Conflict("milestone_already_evaluated",
			fmt.Errorf("milestone_assess: plan %s week %d already evaluated", in.PlanID, in.WeekNumber))
	}

	week, ok := findWeek(plan.MilestoneWeeks(), in.WeekNumber)
	if !ok {
		return out, apierr.NotFound("milestone_week_not_found",
			fmt.Errorf("milestone_assess: plan %s has no week %d", in.PlanID, in.WeekNumber))
	}
	if len(week.ConceptCodes) == 0 {
		return out, apierr.Unprocessable("milestone_has_no_concepts",
			fmt.Errorf("milestone_assess: plan %s week %d has no concepts", in.PlanID, in.WeekNumber))
	}

	if existing, err := deps.Sessions.Get(ctx, in.PlanID, in.WeekNumber, in.StudentID); err != nil {
		deps.Log.Warn("milestone_assess: session lookup failed (regenerating)", "plan_id", in.PlanID, "error", err)
	} else if existing != nil {
		out.State = domain.MilestoneStateInProgress
		out.Questions = questionViews(existing.Questions)
		out.StartedAt = existing.StartedAt
		out.Resumed = true
		return out, nil
	}

	concepts := loadWeekConcepts(ctx, deps, week.ConceptCodes)
	picked := selectAssessmentConcepts(concepts, assessmentConceptMax)
	quota := questionQuota(len(picked), assessmentQuestionTarget)
	questions := generateQuestions(ctx, deps.AI, deps.Log, picked, quota)

	session := &domain.MilestoneSession{
		PlanID:     in.PlanID,
		StudentID:  in.StudentID,
		WeekNumber: in.WeekNumber,
		Questions:  questions,
		StartedAt:  time.Now().UTC(),
	}
	if err := deps.Sessions.Put(ctx, session); err != nil {
		return out, err
	}

	deps.Log.Info("milestone assessment started",
		"plan_id", in.PlanID, "week_number", in.WeekNumber, "questions", len(questions))

	out.State = domain.MilestoneStateInProgress
	out.Questions = questionViews(questions)
	out.StartedAt = session.StartedAt
	return out, nil
}

// loadWeekConcepts resolves codes to catalog rows; codes missing from the
// catalog still get a minimal concept so template questions can cover them.
func loadWeekConcepts(ctx context.Context, deps MilestoneAssessDeps, codes []string) []*domain.Concept {
	rows, err := deps.Concepts.GetByCodes(dbctx.Context{Ctx: ctx}, codes)
	if err != nil {
		deps.Log.Warn("milestone_assess: concept lookup failed (using codes as titles)", "error", err)
		rows = nil
	}
	byCode := conceptsByCode(rows)
	out := make([]*domain.Concept, 0, len(codes))
	for _, code := range codes {
		if c, ok := byCode[code]; ok {
			out = append(out, c)
			continue
		}
		out = append(out, &domain.Concept{Code: code, Title: code, Difficulty: 1})
	}
	return out
}

func findWeek(weeks []domain.WeeklyMilestone, weekNumber int) (domain.WeeklyMilestone, bool) {
	for _, w := range weeks {
		if w.WeekNumber == weekNumber {
			return w, true
		}
	}
	return domain.WeeklyMilestone{}, false
}

func questionViews(questions []domain.MilestoneQuestion) []AssessmentQuestionView {
	out := make([]AssessmentQuestionView, 0, len(questions))
	for _, q := range questions {
		view := AssessmentQuestionView{ID: q.ID, ConceptCode: q.ConceptCode, Text: q.Text}
		for _, opt := range q.Options {
			view.Options = append(view.Options, AssessmentOptionView{Label: opt.Label, Text: opt.Text})
		}
		out = append(out, view)
	}
	return out
}
