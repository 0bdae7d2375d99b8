package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/observability"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type PlanAdvanceDeps struct {
	Log   *logger.Logger
	Plans repos.StudyPlanRepo
}

type PlanAdvanceInput struct {
	PlanID       uuid.UUID
	ConceptCode  string
	SessionHours float64
}

type PlanAdvanceOutput struct {
	Plan      *domain.StudyPlan `json:"plan,omitempty"`
	Advanced  bool              `json:"advanced"`
	Completed bool              `json:"completed"`
}

// PlanAdvance moves a plan past a just-mastered concept and credits the
// session hours. The index write is a single conditional UPDATE, so
// concurrent session reports cannot regress currentIndex, and completion
// flips exactly once when the index reaches the end of the sequence.
func PlanAdvance(ctx context.Context, deps PlanAdvanceDeps, in PlanAdvanceInput) (PlanAdvanceOutput, error) {
	out := PlanAdvanceOutput{}
	if deps.Log == nil || deps.Plans == nil {
		return out, fmt.Errorf("plan_advance: missing deps")
	}
	if in.PlanID == uuid.Nil {
		return out, apierr.BadRequest("plan_id_required", fmt.Errorf("plan_advance: missing plan_id"))
	}
	code := strings.TrimSpace(in.ConceptCode)
	if code == "" {
		return out, apierr.BadRequest("concept_code_required", fmt.Errorf("plan_advance: missing concept_code"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	plan, err := deps.Plans.GetByID(dbc, in.PlanID)
	if err != nil {
		return out, err
	}
	if plan == nil {
		return out, apierr.NotFound("plan_not_found", fmt.Errorf("plan_advance: plan %s not found", in.PlanID))
	}
	out.Plan = plan

	foundIndex := -1
	for i, c := range plan.SequenceCodes() {
		if c == code {
			foundIndex = i
			break
		}
	}
	if foundIndex < 0 {
		return out, nil
	}

	updated, err := deps.Plans.AdvanceAfterMastery(dbc, in.PlanID, foundIndex+1, in.SessionHours)
	if err != nil {
		return out, err
	}
	if updated == nil {
		// Plan is not ACTIVE; nothing to advance.
		return out, nil
	}

	out.Plan = updated
	out.Advanced = true
	out.Completed = updated.Status == domain.PlanStatusCompleted && plan.Status != domain.PlanStatusCompleted
	if out.Completed {
		deps.Log.Info("plan completed", "plan_id", in.PlanID, "student_id", updated.StudentID)
	}
	if m := observability.Current(); m != nil {
		outcome := "advanced"
		if out.Completed {
			outcome = "completed"
		}
		m.IncPlanAdvance(outcome)
	}
	return out, nil
}
