package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type PlanLifecycleDeps struct {
	Log   *logger.Logger
	Plans repos.StudyPlanRepo
}

type PlanTransitionInput struct {
	StudentID uuid.UUID
	PlanID    uuid.UUID
}

// PlanPause moves an ACTIVE plan to PAUSED.
func PlanPause(ctx context.Context, deps PlanLifecycleDeps, in PlanTransitionInput) (*domain.StudyPlan, error) {
	return applyTransition(ctx, deps, in, []domain.PlanStatus{domain.PlanStatusActive}, domain.PlanStatusPaused)
}

// PlanResume moves a PAUSED plan back to ACTIVE.
func PlanResume(ctx context.Context, deps PlanLifecycleDeps, in PlanTransitionInput) (*domain.StudyPlan, error) {
	return applyTransition(ctx, deps, in, []domain.PlanStatus{domain.PlanStatusPaused}, domain.PlanStatusActive)
}

// PlanAbandon moves an ACTIVE or PAUSED plan to the terminal ABANDONED state.
func PlanAbandon(ctx context.Context, deps PlanLifecycleDeps, in PlanTransitionInput) (*domain.StudyPlan, error) {
	return applyTransition(ctx, deps, in,
		[]domain.PlanStatus{domain.PlanStatusActive, domain.PlanStatusPaused}, domain.PlanStatusAbandoned)
}

func applyTransition(ctx context.Context, deps PlanLifecycleDeps, in PlanTransitionInput, from []domain.PlanStatus, to domain.PlanStatus) (*domain.StudyPlan, error) {
	if deps.Log == nil || deps.Plans == nil {
		return nil, fmt.Errorf("plan_lifecycle: missing deps")
	}
	if in.StudentID == uuid.Nil || in.PlanID == uuid.Nil {
		return nil, apierr.BadRequest("plan_id_required", fmt.Errorf("plan_lifecycle: missing ids"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	plan, err := deps.Plans.GetByIDForStudent(dbc, in.PlanID, in.StudentID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apierr.NotFound("plan_not_found", fmt.Errorf("plan_lifecycle: plan %s not found", in.PlanID))
	}

	changed, err := deps.Plans.UpdateStatusIf(dbc, in.PlanID, from, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apierr.Conflict("invalid_status_transition",
			fmt.Errorf("plan_lifecycle: plan %s is %s, cannot move to %s", in.PlanID, plan.Status, to))
	}

	deps.Log.Info("plan status changed", "plan_id", in.PlanID, "from", plan.Status, "to", to)
	plan.Status = to
	return plan, nil
}
