package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/http"
	httpH "github.com/tutoriq/tutoriq-backend/internal/http/handlers"
	httpMW "github.com/tutoriq/tutoriq-backend/internal/http/middleware"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner"
	"github.com/tutoriq/tutoriq-backend/internal/observability"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health        *httpH.HealthHandler
	Plan          *httpH.PlanHandler
	Milestone     *httpH.MilestoneHandler
	Goal          *httpH.GoalHandler
	SessionReport *httpH.SessionReportHandler
	Sync          *httpH.SyncHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, reposet Repos, uc planner.Usecases) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:        httpH.NewHealthHandler(log, db),
		Plan:          httpH.NewPlanHandler(log, uc, reposet.Plans),
		Milestone:     httpH.NewMilestoneHandler(log, uc),
		Goal:          httpH.NewGoalHandler(log, reposet.Goals),
		SessionReport: httpH.NewSessionReportHandler(log, uc),
		Sync:          httpH.NewSyncHandler(log, db, clients.Graph, reposet.Concepts, reposet.Edges, reposet.Goals, reposet.Students, reposet.Mastery),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireRouter(log *logger.Logger, metrics *observability.Metrics, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:     log,
		Metrics: metrics,

		AuthMiddleware: middleware.Auth,
		InternalAPIKey: cfg.InternalAPIKey,

		PlanHandler:          handlers.Plan,
		MilestoneHandler:     handlers.Milestone,
		GoalHandler:          handlers.Goal,
		SessionReportHandler: handlers.SessionReport,
		SyncHandler:          handlers.Sync,

		HealthHandler: handlers.Health,
	})
}
