package planner

import (
	"context"

	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/clients/redis"
	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner/steps"
	"github.com/tutoriq/tutoriq-backend/internal/observability"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
	"github.com/tutoriq/tutoriq-backend/internal/platform/neo4jdb"
	"github.com/tutoriq/tutoriq-backend/internal/platform/textgen"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	AI    textgen.Client
	Graph *neo4jdb.Client

	Assessments redis.MilestoneSessionStore

	Concepts repos.ConceptRepo
	Edges    repos.ConceptEdgeRepo
	Goals    repos.LearningGoalRepo
	Students repos.StudentProfileRepo
	Mastery  repos.ConceptMasteryRepo
	Plans    repos.StudyPlanRepo
	Sessions repos.LearningSessionRepo
	Results  repos.MilestoneResultRepo
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

type (
	PlanBuildInput  = steps.PlanBuildInput
	PlanBuildOutput = steps.PlanBuildOutput

	PlanTransitionInput = steps.PlanTransitionInput

	PlanAdvanceInput  = steps.PlanAdvanceInput
	PlanAdvanceOutput = steps.PlanAdvanceOutput

	PlanDetailInput  = steps.PlanDetailInput
	PlanDetailOutput = steps.PlanDetailOutput
	MilestoneView    = steps.MilestoneView

	MilestoneAssessInput  = steps.MilestoneAssessInput
	MilestoneAssessOutput = steps.MilestoneAssessOutput

	MilestoneSubmitInput  = steps.MilestoneSubmitInput
	MilestoneSubmitOutput = steps.MilestoneSubmitOutput

	SessionCompletedInput  = steps.SessionCompletedInput
	SessionCompletedOutput = steps.SessionCompletedOutput

	AdaptationInput  = steps.AdaptationInput
	AdaptationOutput = steps.AdaptationOutput
	AdaptationAction = steps.AdaptationAction
)

func (u Usecases) PlanBuild(ctx context.Context, in PlanBuildInput) (PlanBuildOutput, error) {
	out, err := steps.PlanBuild(ctx, steps.PlanBuildDeps{
		DB:       u.deps.DB,
		Log:      u.deps.Log,
		Goals:    u.deps.Goals,
		Students: u.deps.Students,
		Concepts: u.deps.Concepts,
		Edges:    u.deps.Edges,
		Mastery:  u.deps.Mastery,
		Plans:    u.deps.Plans,
		Sessions: u.deps.Sessions,
		Graph:    u.deps.Graph,
		AI:       u.deps.AI,
	}, steps.PlanBuildInput(in))
	if m := observability.Current(); m != nil {
		m.IncPlanBuild(statusLabel(err))
	}
	return out, err
}

func (u Usecases) PlanPause(ctx context.Context, in PlanTransitionInput) (*domain.StudyPlan, error) {
	return steps.PlanPause(ctx, u.lifecycleDeps(), steps.PlanTransitionInput(in))
}

func (u Usecases) PlanResume(ctx context.Context, in PlanTransitionInput) (*domain.StudyPlan, error) {
	return steps.PlanResume(ctx, u.lifecycleDeps(), steps.PlanTransitionInput(in))
}

func (u Usecases) PlanAbandon(ctx context.Context, in PlanTransitionInput) (*domain.StudyPlan, error) {
	return steps.PlanAbandon(ctx, u.lifecycleDeps(), steps.PlanTransitionInput(in))
}

func (u Usecases) PlanDetail(ctx context.Context, in PlanDetailInput) (PlanDetailOutput, error) {
	return steps.PlanDetail(ctx, steps.PlanDetailDeps{
		Log:      u.deps.Log,
		Plans:    u.deps.Plans,
		Results:  u.deps.Results,
		Sessions: u.deps.Sessions,
	}, steps.PlanDetailInput(in))
}

func (u Usecases) PlanAdvance(ctx context.Context, in PlanAdvanceInput) (PlanAdvanceOutput, error) {
	return steps.PlanAdvance(ctx, steps.PlanAdvanceDeps{
		Log:   u.deps.Log,
		Plans: u.deps.Plans,
	}, steps.PlanAdvanceInput(in))
}

func (u Usecases) MilestoneAssessStart(ctx context.Context, in MilestoneAssessInput) (MilestoneAssessOutput, error) {
	out, err := steps.MilestoneAssessStart(ctx, steps.MilestoneAssessDeps{
		Log:      u.deps.Log,
		Plans:    u.deps.Plans,
		Results:  u.deps.Results,
		Concepts: u.deps.Concepts,
		Sessions: u.deps.Assessments,
		AI:       u.deps.AI,
	}, steps.MilestoneAssessInput(in))
	if m := observability.Current(); m != nil {
		m.IncAssessment("start", statusLabel(err))
	}
	return out, err
}

func (u Usecases) MilestoneSubmit(ctx context.Context, in MilestoneSubmitInput) (MilestoneSubmitOutput, error) {
	out, err := steps.MilestoneSubmit(ctx, steps.MilestoneSubmitDeps{
		Log:      u.deps.Log,
		Plans:    u.deps.Plans,
		Results:  u.deps.Results,
		Sessions: u.deps.Assessments,
	}, steps.MilestoneSubmitInput(in))
	if m := observability.Current(); m != nil {
		m.IncAssessment("submit", statusLabel(err))
	}
	return out, err
}

func (u Usecases) SessionCompleted(ctx context.Context, in SessionCompletedInput) (SessionCompletedOutput, error) {
	out, err := steps.SessionCompleted(ctx, steps.SessionCompletedDeps{
		DB:       u.deps.DB,
		Log:      u.deps.Log,
		Students: u.deps.Students,
		Sessions: u.deps.Sessions,
		Mastery:  u.deps.Mastery,
		Plans:    u.deps.Plans,
		Goals:    u.deps.Goals,
		Concepts: u.deps.Concepts,
		Results:  u.deps.Results,
		AI:       u.deps.AI,
	}, steps.SessionCompletedInput(in))
	if err == nil {
		if m := observability.Current(); m != nil {
			m.IncSessionReport()
		}
	}
	return out, err
}

func (u Usecases) RunAdaptation(ctx context.Context, in AdaptationInput) (AdaptationOutput, error) {
	return steps.RunAdaptation(ctx, steps.AdaptationDeps{
		Log:      u.deps.Log,
		Plans:    u.deps.Plans,
		Goals:    u.deps.Goals,
		Students: u.deps.Students,
		Concepts: u.deps.Concepts,
		Mastery:  u.deps.Mastery,
		Sessions: u.deps.Sessions,
		Results:  u.deps.Results,
		AI:       u.deps.AI,
	}, steps.AdaptationInput(in))
}

func (u Usecases) lifecycleDeps() steps.PlanLifecycleDeps {
	return steps.PlanLifecycleDeps{
		Log:   u.deps.Log,
		Plans: u.deps.Plans,
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
