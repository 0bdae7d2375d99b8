package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/tutoriq/tutoriq-backend/internal/http/handlers"
	httpMW "github.com/tutoriq/tutoriq-backend/internal/http/middleware"
	"github.com/tutoriq/tutoriq-backend/internal/observability"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	InternalAPIKey string

	PlanHandler          *httpH.PlanHandler
	MilestoneHandler     *httpH.MilestoneHandler
	GoalHandler          *httpH.GoalHandler
	SessionReportHandler *httpH.SessionReportHandler
	SyncHandler          *httpH.SyncHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	// otelgin runs first so AttachTraceContext can adopt the span's trace id.
	r.Use(otelgin.Middleware("tutoriq"))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	// Health + metrics (no auth)
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readycheck", cfg.HealthHandler.ReadyCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Plans
		if cfg.PlanHandler != nil {
			api.POST("/plans", cfg.PlanHandler.CreatePlan)
			api.GET("/plans", cfg.PlanHandler.ListPlans)
			api.GET("/plans/:id", cfg.PlanHandler.GetPlan)
			api.POST("/plans/:id/pause", cfg.PlanHandler.PausePlan)
			api.POST("/plans/:id/resume", cfg.PlanHandler.ResumePlan)
			api.POST("/plans/:id/abandon", cfg.PlanHandler.AbandonPlan)
		}

		// Milestone assessments
		if cfg.MilestoneHandler != nil {
			api.POST("/plans/:id/weeks/:week/assessment", cfg.MilestoneHandler.StartAssessment)
			api.POST("/plans/:id/weeks/:week/assessment/submit", cfg.MilestoneHandler.SubmitAssessment)
		}

		// Goal catalog
		if cfg.GoalHandler != nil {
			api.GET("/goals", cfg.GoalHandler.ListGoals)
		}
	}

	internal := r.Group("/internal")
	{
		// Middleware
		internal.Use(httpMW.RequireInternalKey(cfg.Log, cfg.InternalAPIKey))

		// Session reporting feed
		if cfg.SessionReportHandler != nil {
			internal.POST("/sessions/completed", cfg.SessionReportHandler.ReportCompleted)
		}

		// Curriculum and identity feeds
		if cfg.SyncHandler != nil {
			internal.POST("/mastery/sync", cfg.SyncHandler.SyncMastery)
			internal.POST("/concepts/sync", cfg.SyncHandler.SyncConcepts)
			internal.POST("/goals", cfg.SyncHandler.UpsertGoal)
			internal.POST("/students", cfg.SyncHandler.UpsertStudent)
		}
	}

	return r
}
