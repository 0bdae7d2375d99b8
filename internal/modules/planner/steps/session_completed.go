package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner/estimator"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
	"github.com/tutoriq/tutoriq-backend/internal/platform/textgen"
)

type SessionCompletedDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Students repos.StudentProfileRepo
	Sessions repos.LearningSessionRepo
	Mastery  repos.ConceptMasteryRepo
	Plans    repos.StudyPlanRepo
	Goals    repos.LearningGoalRepo
	Concepts repos.ConceptRepo
	Results  repos.MilestoneResultRepo
	AI       textgen.Client
}

type SessionCompletedInput struct {
	StudentID       uuid.UUID
	SessionKey      string
	ConceptCode     string
	DurationSeconds int

	QuestionsAnswered int
	QuestionsCorrect  int
	Completed         bool
	OccurredAt        *time.Time

	// MasteryProbability is the reporter's post-session estimate. When nil
	// the stored probability is kept and only practice state advances.
	MasteryProbability *float64
}

type SessionCompletedOutput struct {
	Session        *domain.LearningSession `json:"session"`
	Duplicate      bool                    `json:"duplicate"`
	Mastered       bool                    `json:"mastered"`
	AdvancedPlans  []uuid.UUID             `json:"advanced_plans,omitempty"`
	CompletedPlans []uuid.UUID             `json:"completed_plans,omitempty"`
	Adaptations    []AdaptationOutput      `json:"adaptations,omitempty"`
	Message        string                  `json:"message,omitempty"`
	VelocityTrend  string                  `json:"velocity_trend,omitempty"`
}

// SessionCompleted ingests one finished learning session: it persists the
// session and practice state, advances every ACTIVE plan containing the
// concept once mastery crosses the threshold, refreshes plan pacing, and
// runs the adaptation rules per plan. Replays of the same session key are
// detected by the unique index and return the original row unchanged.
func SessionCompleted(ctx context.Context, deps SessionCompletedDeps, in SessionCompletedInput) (SessionCompletedOutput, error) {
	out := SessionCompletedOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Students == nil || deps.Sessions == nil ||
		deps.Mastery == nil || deps.Plans == nil || deps.Concepts == nil || deps.Results == nil {
		return out, fmt.Errorf("session_completed: missing deps")
	}
	if in.StudentID == uuid.Nil {
		return out, apierr.BadRequest("student_id_required", fmt.Errorf("session_completed: missing student_id"))
	}
	sessionKey := strings.TrimSpace(in.SessionKey)
	if sessionKey == "" {
		return out, apierr.BadRequest("session_id_required", fmt.Errorf("session_completed: missing session id"))
	}
	code := strings.TrimSpace(in.ConceptCode)
	if code == "" {
		return out, apierr.BadRequest("concept_code_required", fmt.Errorf("session_completed: missing concept_code"))
	}
	if in.DurationSeconds < 0 || in.QuestionsAnswered < 0 || in.QuestionsCorrect < 0 || in.QuestionsCorrect > in.QuestionsAnswered {
		return out, apierr.BadRequest("session_counts_invalid", fmt.Errorf("session_completed: malformed counts"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	student, err := deps.Students.GetByID(dbc, in.StudentID)
	if err != nil {
		return out, err
	}
	if student == nil {
		return out, apierr.NotFound("student_not_found", fmt.Errorf("session_completed: student %s not found", in.StudentID))
	}

	now := time.Now().UTC()
	occurredAt := now
	if in.OccurredAt != nil {
		occurredAt = in.OccurredAt.UTC()
	}

	probability, err := resolveProbability(dbc, deps, in, code)
	if err != nil {
		return out, err
	}

	session := &domain.LearningSession{
		SessionKey:        sessionKey,
		StudentID:         in.StudentID,
		ConceptCode:       code,
		OccurredAt:        occurredAt,
		DurationSeconds:   in.DurationSeconds,
		QuestionsAnswered: in.QuestionsAnswered,
		QuestionsCorrect:  in.QuestionsCorrect,
		Completed:         in.Completed,
	}
	if err := deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := deps.Sessions.Create(txc, []*domain.LearningSession{session}); err != nil {
			return err
		}
		return deps.Mastery.RecordPractice(txc, in.StudentID, code, probability, occurredAt)
	}); err != nil {
		if repos.IsUniqueViolation(err) {
			existing, lookupErr := deps.Sessions.GetBySessionKey(dbc, sessionKey)
			if lookupErr != nil {
				return out, lookupErr
			}
			out.Session = existing
			out.Duplicate = true
			return out, nil
		}
		return out, err
	}
	out.Session = session
	out.Mastered = probability >= domain.MasteryThreshold

	sessionHours := hoursFromSeconds(int64(in.DurationSeconds))
	if out.Mastered {
		out.AdvancedPlans, out.CompletedPlans = advanceActivePlans(ctx, deps, in.StudentID, code, sessionHours)
	}

	current, previous := velocityWindows(ctx, deps.Sessions, deps.Log, in.StudentID, now)
	out.VelocityTrend = estimator.CalculateTrend(observedWeeklyHours(current), observedWeeklyHours(previous))
	refreshPlanPacing(ctx, deps, in.StudentID, now, current)

	out.Adaptations, out.Message = runAdaptations(ctx, deps, in.StudentID, code)
	return out, nil
}

// resolveProbability falls back to the stored probability when the reporter
// did not send one, so practice state still advances.
func resolveProbability(dbc dbctx.Context, deps SessionCompletedDeps, in SessionCompletedInput, code string) (float64, error) {
	if in.MasteryProbability != nil {
		p := *in.MasteryProbability
		if p < 0 || p > 1 {
			return 0, apierr.BadRequest("mastery_probability_invalid", fmt.Errorf("session_completed: probability %v out of range", p))
		}
		return p, nil
	}
	rows, err := deps.Mastery.GetByStudentAndCodes(dbc, in.StudentID, []string{code})
	if err != nil {
		return 0, err
	}
	if len(rows) > 0 && rows[0] != nil {
		return rows[0].Probability, nil
	}
	return 0, nil
}

// advanceActivePlans applies the mastery advance to every ACTIVE plan whose
// sequence contains the concept. Failures are isolated per plan.
func advanceActivePlans(ctx context.Context, deps SessionCompletedDeps, studentID uuid.UUID, code string, sessionHours float64) ([]uuid.UUID, []uuid.UUID) {
	dbc := dbctx.Context{Ctx: ctx}
	plans, err := deps.Plans.ListActiveByStudent(dbc, studentID)
	if err != nil {
		deps.Log.Warn("session_completed: active plan load failed (skipping advance)", "student_id", studentID, "error", err)
		return nil, nil
	}

	var advanced, completed []uuid.UUID
	for _, plan := range plans {
		if plan == nil || !containsCode(plan.SequenceCodes(), code) {
			continue
		}
		res, err := PlanAdvance(ctx, PlanAdvanceDeps{Log: deps.Log, Plans: deps.Plans}, PlanAdvanceInput{
			PlanID:       plan.ID,
			ConceptCode:  code,
			SessionHours: sessionHours,
		})
		if err != nil {
			deps.Log.Warn("session_completed: plan advance failed (continuing)", "plan_id", plan.ID, "error", err)
			continue
		}
		if res.Advanced {
			advanced = append(advanced, plan.ID)
		}
		if res.Completed {
			completed = append(completed, plan.ID)
		}
	}
	return advanced, completed
}

// velocityWindows loads the completed sessions for the current window and
// the one before it. Either list degrades to empty on error.
func velocityWindows(ctx context.Context, sessions repos.LearningSessionRepo, log *logger.Logger, studentID uuid.UUID, now time.Time) ([]*domain.LearningSession, []*domain.LearningSession) {
	dbc := dbctx.Context{Ctx: ctx}
	all, err := sessions.ListCompletedByStudentSince(dbc, studentID, now.Add(-2*estimator.VelocityWindow))
	if err != nil {
		log.Warn("velocity window load failed (continuing)", "student_id", studentID, "error", err)
		return nil, nil
	}
	cutoff := now.Add(-estimator.VelocityWindow)
	var current, previous []*domain.LearningSession
	for _, s := range all {
		if s == nil {
			continue
		}
		if s.OccurredAt.Before(cutoff) {
			previous = append(previous, s)
			continue
		}
		current = append(current, s)
	}
	return current, previous
}

// refreshPlanPacing rewrites the live pacing fields on every ACTIVE plan.
// Milestones and estimates are build-time snapshots and stay untouched.
func refreshPlanPacing(ctx context.Context, deps SessionCompletedDeps, studentID uuid.UUID, now time.Time, currentWindow []*domain.LearningSession) {
	dbc := dbctx.Context{Ctx: ctx}
	plans, err := deps.Plans.ListActiveByStudent(dbc, studentID)
	if err != nil {
		deps.Log.Warn("session_completed: pacing refresh load failed (skipping)", "student_id", studentID, "error", err)
		return
	}
	weeklyHours := observedWeeklyHours(currentWindow)
	for _, plan := range plans {
		if plan == nil {
			continue
		}
		projected := liveProjection(plan, now)
		onTrack := plan.TargetDate == nil || !projected.After(plan.TargetDate.UTC())
		if err := deps.Plans.UpdateFields(dbc, plan.ID, map[string]interface{}{
			"projected_end_date":      projected,
			"on_track":                onTrack,
			"velocity_hours_per_week": weeklyHours,
			"last_recalculated_at":    now,
		}); err != nil {
			deps.Log.Warn("session_completed: pacing refresh failed (continuing)", "plan_id", plan.ID, "error", err)
		}
	}
}

// runAdaptations evaluates the rules per ACTIVE plan. The first non-empty
// message across plans is the single learner-facing message.
func runAdaptations(ctx context.Context, deps SessionCompletedDeps, studentID uuid.UUID, code string) ([]AdaptationOutput, string) {
	dbc := dbctx.Context{Ctx: ctx}
	plans, err := deps.Plans.ListActiveByStudent(dbc, studentID)
	if err != nil {
		deps.Log.Warn("session_completed: adaptation plan load failed (skipping)", "student_id", studentID, "error", err)
		return nil, ""
	}

	adeps := AdaptationDeps{
		Log:      deps.Log,
		Plans:    deps.Plans,
		Goals:    deps.Goals,
		Students: deps.Students,
		Concepts: deps.Concepts,
		Mastery:  deps.Mastery,
		Sessions: deps.Sessions,
		Results:  deps.Results,
		AI:       deps.AI,
	}

	var outputs []AdaptationOutput
	message := ""
	for _, plan := range plans {
		if plan == nil {
			continue
		}
		res, err := RunAdaptation(ctx, adeps, AdaptationInput{
			StudentID:     studentID,
			PlanID:        plan.ID,
			JustCompleted: code,
		})
		if err != nil {
			deps.Log.Warn("session_completed: adaptation failed (continuing)", "plan_id", plan.ID, "error", err)
			continue
		}
		if message == "" && res.Message != "" {
			message = res.Message
		}
		res.Message = ""
		outputs = append(outputs, res)
	}
	return outputs, message
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
