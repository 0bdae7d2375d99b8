package steps

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner/prompts"
	"github.com/tutoriq/tutoriq-backend/internal/observability"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
	"github.com/tutoriq/tutoriq-backend/internal/platform/textgen"
)

const adaptationSessionWindow = 20

type AdaptationDeps struct {
	Log      *logger.Logger
	Plans    repos.StudyPlanRepo
	Goals    repos.LearningGoalRepo
	Students repos.StudentProfileRepo
	Concepts repos.ConceptRepo
	Mastery  repos.ConceptMasteryRepo
	Sessions repos.LearningSessionRepo
	Results  repos.MilestoneResultRepo
	AI       textgen.Client
}

type AdaptationInput struct {
	StudentID     uuid.UUID
	PlanID        uuid.UUID
	JustCompleted string
}

type AdaptationOutput struct {
	PlanID  uuid.UUID          `json:"plan_id"`
	Actions []AdaptationAction `json:"actions"`
	Applied int                `json:"applied"`
	Message string             `json:"message,omitempty"`
}

// RunAdaptation evaluates the six pacing rules against one plan and, when a
// schedule-drift rule fires, asks the text generator for a single learner
// message with a deterministic fallback. Input loads are best-effort: a
// failed load empties that input and the remaining rules still run.
func RunAdaptation(ctx context.Context, deps AdaptationDeps, in AdaptationInput) (AdaptationOutput, error) {
	out := AdaptationOutput{PlanID: in.PlanID}
	if deps.Log == nil || deps.Plans == nil || deps.Concepts == nil || deps.Mastery == nil ||
		deps.Sessions == nil || deps.Results == nil {
		return out, fmt.Errorf("adaptation: missing deps")
	}
	if in.StudentID == uuid.Nil || in.PlanID == uuid.Nil {
		return out, apierr.BadRequest("plan_id_required", fmt.Errorf("adaptation: missing ids"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	plan, err := deps.Plans.GetByIDForStudent(dbc, in.PlanID, in.StudentID)
	if err != nil {
		return out, err
	}
	if plan == nil {
		return out, apierr.NotFound("plan_not_found", fmt.Errorf("adaptation: plan %s not found", in.PlanID))
	}

	snap := buildPlanSnapshot(ctx, deps, plan, in.JustCompleted)
	out.Actions = EvaluateRules(snap)
	m := observability.Current()
	for _, a := range out.Actions {
		if m != nil {
			m.IncAdaptationRule(a.Rule, a.Applied)
		}
		if a.Applied {
			out.Applied++
			deps.Log.Info("adaptation rule applied", "plan_id", in.PlanID, "rule", a.Rule, "detail", a.Detail)
		}
	}

	out.Message = driftMessage(ctx, deps, snap, out.Actions)
	return out, nil
}

// buildPlanSnapshot gathers rule inputs. Every load degrades to an empty
// input on failure so one unavailable source cannot block the run.
func buildPlanSnapshot(ctx context.Context, deps AdaptationDeps, plan *domain.StudyPlan, justCompleted string) PlanSnapshot {
	dbc := dbctx.Context{Ctx: ctx}
	now := time.Now().UTC()
	snap := PlanSnapshot{
		Plan:          plan,
		Now:           now,
		JustCompleted: strings.TrimSpace(justCompleted),
		Sequence:      plan.SequenceCodes(),
		Hours:         plan.SequenceHours(),
		CurrentIndex:  plan.CurrentIndex,
		Difficulty:    map[string]int{},
		Mastery:       map[string]float64{},
		ActualSeconds: map[string]int64{},
		Projected:     liveProjection(plan, now),
	}

	if concepts, err := deps.Concepts.GetByCodes(dbc, snap.Sequence); err != nil {
		deps.Log.Warn("adaptation: concept load failed (continuing)", "plan_id", plan.ID, "error", err)
	} else {
		for _, c := range concepts {
			snap.Difficulty[c.Code] = c.Difficulty
		}
	}

	if rows, err := deps.Mastery.GetByStudentAndCodes(dbc, plan.StudentID, snap.Sequence); err != nil {
		deps.Log.Warn("adaptation: mastery load failed (continuing)", "plan_id", plan.ID, "error", err)
	} else {
		snap.Mastery = masteryByCode(rows)
	}

	if rows, err := deps.Sessions.ListRecentByStudent(dbc, plan.StudentID, adaptationSessionWindow); err != nil {
		deps.Log.Warn("adaptation: session load failed (continuing)", "plan_id", plan.ID, "error", err)
	} else {
		snap.RecentSessions = rows
	}

	if rows, err := deps.Results.ListRecentFailedByPlan(dbc, plan.ID, failedResultsWindow); err != nil {
		deps.Log.Warn("adaptation: milestone result load failed (continuing)", "plan_id", plan.ID, "error", err)
	} else {
		snap.FailedResults = rows
	}

	codes := recentlyCompletedCodes(snap)
	if len(codes) > 0 {
		if sums, err := deps.Sessions.SumDurationByConcepts(dbc, plan.StudentID, codes); err != nil {
			deps.Log.Warn("adaptation: practice time load failed (continuing)", "plan_id", plan.ID, "error", err)
		} else {
			snap.ActualSeconds = sums
		}
	}

	return snap
}

// recentlyCompletedCodes lists the concepts whose actual practice time the
// rules compare to estimates: the triggering concept plus the last few
// completed sequence entries.
func recentlyCompletedCodes(snap PlanSnapshot) []string {
	seen := map[string]bool{}
	out := make([]string, 0, fastLearnerWindow+1)
	if snap.JustCompleted != "" {
		seen[snap.JustCompleted] = true
		out = append(out, snap.JustCompleted)
	}
	for i := snap.CurrentIndex - fastLearnerWindow; i < snap.CurrentIndex; i++ {
		if i < 0 || i >= len(snap.Sequence) {
			continue
		}
		code := snap.Sequence[i]
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// liveProjection recomputes the completion date from hours still owed at
// the plan's weekly budget.
func liveProjection(plan *domain.StudyPlan, now time.Time) time.Time {
	if plan == nil || plan.WeeklyHours <= 0 {
		return now
	}
	remaining := plan.TotalEstimatedHours - plan.HoursCompleted
	if remaining < 0 {
		remaining = 0
	}
	weeks := int(math.Ceil(remaining / plan.WeeklyHours))
	return now.AddDate(0, 0, weeks*7)
}

// driftMessage produces at most one learner-facing message. Behind-schedule
// wins over ahead-of-schedule when both somehow apply.
func driftMessage(ctx context.Context, deps AdaptationDeps, snap PlanSnapshot, actions []AdaptationAction) string {
	var behind, ahead bool
	for _, a := range actions {
		if !a.Applied {
			continue
		}
		switch a.Rule {
		case RuleBehindSchedule:
			behind = true
		case RuleAheadOfSchedule:
			ahead = true
		}
	}
	if !behind && !ahead {
		return ""
	}

	days := scheduleDriftDays(snap)
	studentName, goalName := messageNames(ctx, deps, snap.Plan)
	if behind {
		return generateDriftMessage(ctx, deps, snap, studentName, goalName, days, 0)
	}
	return generateDriftMessage(ctx, deps, snap, studentName, goalName, 0, -days)
}

func generateDriftMessage(ctx context.Context, deps AdaptationDeps, snap PlanSnapshot, studentName, goalName string, daysBehind, daysAhead int) string {
	if msg, ok := aiDriftMessage(ctx, deps, snap, studentName, goalName, daysBehind, daysAhead); ok {
		return msg
	}
	if m := observability.Current(); m != nil {
		m.IncTextGenFallback("adaptation_message")
	}
	return fallbackDriftMessage(goalName, daysBehind, daysAhead)
}

func aiDriftMessage(ctx context.Context, deps AdaptationDeps, snap PlanSnapshot, studentName, goalName string, daysBehind, daysAhead int) (string, bool) {
	if deps.AI == nil {
		return "", false
	}

	mastered := snap.CurrentIndex
	remaining := len(snap.Sequence) - snap.CurrentIndex
	if remaining < 0 {
		remaining = 0
	}
	input := prompts.Input{
		StudentName:    studentName,
		GoalName:       goalName,
		MasteredCount:  fmtInt(mastered),
		RemainingCount: fmtInt(remaining),
	}
	if daysBehind > 0 {
		input.DaysBehind = fmtInt(daysBehind)
	}
	if daysAhead > 0 {
		input.DaysAhead = fmtInt(daysAhead)
	}

	prompt, err := prompts.Build(prompts.PromptAdaptationMessage, input)
	if err != nil {
		deps.Log.Warn("adaptation: message prompt build failed (using template)", "error", err)
		return "", false
	}
	obj, err := deps.AI.GenerateJSON(ctx, prompt.System, prompt.User, prompt.SchemaName, prompt.Schema)
	if err != nil {
		deps.Log.Warn("adaptation: message generation failed (using template)", "error", err)
		return "", false
	}
	msg, _ := obj["message"].(string)
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", false
	}
	return msg, true
}

func fallbackDriftMessage(goalName string, daysBehind, daysAhead int) string {
	if daysBehind > 0 {
		return fmt.Sprintf(
			"You're about %d days behind on %s, and that's fixable. One extra short session this week will start closing the gap.",
			daysBehind, goalName)
	}
	return fmt.Sprintf(
		"You're about %d days ahead on %s. Great pace! Keep the momentum, and consider stretching into an advanced topic.",
		daysAhead, goalName)
}

// messageNames loads display names best-effort; messages degrade to generic
// wording rather than failing the run.
func messageNames(ctx context.Context, deps AdaptationDeps, plan *domain.StudyPlan) (string, string) {
	dbc := dbctx.Context{Ctx: ctx}
	studentName := "there"
	goalName := "your goal"
	if deps.Students != nil {
		if student, err := deps.Students.GetByID(dbc, plan.StudentID); err == nil && student != nil && strings.TrimSpace(student.DisplayName) != "" {
			studentName = student.DisplayName
		}
	}
	if deps.Goals != nil {
		if goal, err := deps.Goals.GetByID(dbc, plan.GoalID); err == nil && goal != nil && strings.TrimSpace(goal.Name) != "" {
			goalName = goal.Name
		}
	}
	return studentName, goalName
}
