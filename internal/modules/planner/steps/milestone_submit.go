package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/clients/redis"
	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type MilestoneSubmitDeps struct {
	Log      *logger.Logger
	Plans    repos.StudyPlanRepo
	Results  repos.MilestoneResultRepo
	Sessions redis.MilestoneSessionStore
}

type MilestoneSubmitInput struct {
	StudentID  uuid.UUID
	PlanID     uuid.UUID
	WeekNumber int

	// Answers maps question ID to the selected option label. Questions
	// missing from the map count as incorrect.
	Answers map[string]string
}

type MilestoneSubmitOutput struct {
	State      domain.MilestoneState   `json:"state"`
	Result     *domain.MilestoneResult `json:"result"`
	Evaluation MilestoneEvaluation     `json:"evaluation"`
}

// MilestoneSubmit consumes the in-progress attempt, scores it, and persists
// the immutable MilestoneResult. The attempt is taken from the session store
// atomically, so a double submit cannot evaluate the same answers twice; the
// unique (plan, week) index backstops a concurrent insert.
func MilestoneSubmit(ctx context.Context, deps MilestoneSubmitDeps, in MilestoneSubmitInput) (MilestoneSubmitOutput, error) {
	out := MilestoneSubmitOutput{}
	if deps.Log == nil || deps.Plans == nil || deps.Results == nil || deps.Sessions == nil {
		return out, fmt.Errorf("milestone_submit: missing deps")
	}
	if in.StudentID == uuid.Nil || in.PlanID == uuid.Nil {
		return out, apierr.BadRequest("plan_id_required", fmt.Errorf("milestone_submit: missing ids"))
	}
	if in.WeekNumber < 1 {
		return out, apierr.BadRequest("week_number_invalid", fmt.Errorf("milestone_submit: week_number must be >= 1"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	plan, err := deps.Plans.GetByIDForStudent(dbc, in.PlanID, in.StudentID)
	if err != nil {
		return out, err
	}
	if plan == nil {
		return out, apierr.NotFound("plan_not_found", fmt.Errorf("milestone_submit: plan %s not found", in.PlanID))
	}

	existing, err := deps.Results.GetByPlanAndWeek(dbc, in.PlanID, in.WeekNumber)
	if err != nil {
		return out, err
	}
	if existing != nil {
		return out, apierr.Conflict("milestone_already_evaluated",
			fmt.Errorf("milestone_submit: plan %s week %d already evaluated", in.PlanID, in.WeekNumber))
	}

	session, err := deps.Sessions.Take(ctx, in.PlanID, in.WeekNumber, in.StudentID)
	if err != nil {
		return out, err
	}
	if session == nil {
		return out, apierr.NotFound("assessment_not_started",
			fmt.Errorf("milestone_submit: no in-progress attempt for plan %s week %d", in.PlanID, in.WeekNumber))
	}

	eval := EvaluateAnswers(session.Questions, in.Answers)

	tested := make([]string, 0, len(eval.ConceptScores))
	for _, cs := range eval.ConceptScores {
		tested = append(tested, cs.ConceptCode)
	}

	result := &domain.MilestoneResult{
		PlanID:         in.PlanID,
		StudentID:      in.StudentID,
		WeekNumber:     in.WeekNumber,
		Passed:         eval.Passed,
		Score:          eval.Score,
		TestedConcepts: mustJSON(tested),
		ConceptScores:  mustJSON(eval.ConceptScores),
		Message:        eval.Message,
	}
	if _, err := deps.Results.Create(dbc, []*domain.MilestoneResult{result}); err != nil {
		if repos.IsUniqueViolation(err) {
			return out, apierr.Conflict("milestone_already_evaluated",
				fmt.Errorf("milestone_submit: plan %s week %d already evaluated", in.PlanID, in.WeekNumber))
		}
		return out, err
	}

	deps.Log.Info("milestone evaluated",
		"plan_id", in.PlanID, "week_number", in.WeekNumber,
		"score", eval.Score, "passed", eval.Passed, "failed_concepts", len(eval.FailedConcepts))

	out.State = domain.MilestoneStateEvaluated
	out.Result = result
	out.Evaluation = eval
	return out, nil
}
