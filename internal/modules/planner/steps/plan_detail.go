package steps

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner/estimator"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type PlanDetailDeps struct {
	Log      *logger.Logger
	Plans    repos.StudyPlanRepo
	Results  repos.MilestoneResultRepo
	Sessions repos.LearningSessionRepo
}

type PlanDetailInput struct {
	StudentID uuid.UUID
	PlanID    uuid.UUID
}

// MilestoneView is one plan week with its durable state attached. Weeks are
// EVALUATED once a result row exists; in-flight attempts live only in the
// session store and surface through the assessment endpoints.
type MilestoneView struct {
	domain.WeeklyMilestone
	State  domain.MilestoneState   `json:"state"`
	Result *domain.MilestoneResult `json:"result,omitempty"`
}

type PlanDetailOutput struct {
	Plan             *domain.StudyPlan `json:"plan"`
	ConceptsTotal    int               `json:"concepts_total"`
	ConceptsMastered int               `json:"concepts_mastered"`
	ProgressPct      int               `json:"progress_pct"`
	VelocityTrend    string            `json:"velocity_trend"`
	Milestones       []MilestoneView   `json:"milestones"`
}

// PlanDetail assembles the read model for one plan: progress counters, the
// observed velocity trend, and per-week milestone states.
func PlanDetail(ctx context.Context, deps PlanDetailDeps, in PlanDetailInput) (PlanDetailOutput, error) {
	var out PlanDetailOutput
	if deps.Log == nil || deps.Plans == nil || deps.Results == nil || deps.Sessions == nil {
		return out, fmt.Errorf("plan_detail: missing deps")
	}
	if in.StudentID == uuid.Nil || in.PlanID == uuid.Nil {
		return out, apierr.BadRequest("plan_id_required", fmt.Errorf("plan_detail: missing ids"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	plan, err := deps.Plans.GetByIDForStudent(dbc, in.PlanID, in.StudentID)
	if err != nil {
		return out, err
	}
	if plan == nil {
		return out, apierr.NotFound("plan_not_found", fmt.Errorf("plan_detail: plan %s not found", in.PlanID))
	}

	out.Plan = plan
	out.ConceptsTotal = len(plan.SequenceCodes())
	out.ConceptsMastered = plan.CurrentIndex
	if out.ConceptsMastered > out.ConceptsTotal {
		out.ConceptsMastered = out.ConceptsTotal
	}
	if out.ConceptsTotal > 0 {
		out.ProgressPct = int(math.Round(float64(out.ConceptsMastered) / float64(out.ConceptsTotal) * 100))
	}

	now := time.Now().UTC()
	current, previous := velocityWindows(ctx, deps.Sessions, deps.Log, in.StudentID, now)
	out.VelocityTrend = estimator.CalculateTrend(observedWeeklyHours(current), observedWeeklyHours(previous))

	results, err := deps.Results.ListByPlan(dbc, plan.ID)
	if err != nil {
		deps.Log.Warn("plan_detail: milestone result load failed (continuing)", "plan_id", plan.ID, "error", err)
		results = nil
	}
	out.Milestones = milestoneViews(plan.MilestoneWeeks(), results)
	return out, nil
}

func milestoneViews(weeks []domain.WeeklyMilestone, results []*domain.MilestoneResult) []MilestoneView {
	byWeek := make(map[int]*domain.MilestoneResult, len(results))
	for _, r := range results {
		if r != nil {
			byWeek[r.WeekNumber] = r
		}
	}
	out := make([]MilestoneView, 0, len(weeks))
	for _, w := range weeks {
		view := MilestoneView{WeeklyMilestone: w, State: domain.MilestoneStateNotStarted}
		if r, ok := byWeek[w.WeekNumber]; ok {
			view.State = domain.MilestoneStateEvaluated
			view.Result = r
		}
		out = append(out, view)
	}
	return out
}
