package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/data/db"
	"github.com/tutoriq/tutoriq-backend/internal/http"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner"
	"github.com/tutoriq/tutoriq-backend/internal/observability"
	"github.com/tutoriq/tutoriq-backend/internal/platform/envutil"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type App struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Router  *gin.Engine
	Cfg     Config
	Repos   Repos
	Clients Clients
	Planner planner.Usecases
	Metrics *observability.Metrics

	cancel      context.CancelFunc
	stopTracing func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clientset, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	metrics := observability.Init(log)
	stopTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "tutoriq",
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})

	reposet := wireRepos(theDB, log)

	uc := planner.New(planner.UsecasesDeps{
		DB:  theDB,
		Log: log,

		AI:    clientset.AI,
		Graph: clientset.Graph,

		Assessments: clientset.Assessments,

		Concepts: reposet.Concepts,
		Edges:    reposet.Edges,
		Goals:    reposet.Goals,
		Students: reposet.Students,
		Mastery:  reposet.Mastery,
		Plans:    reposet.Plans,
		Sessions: reposet.Sessions,
		Results:  reposet.Results,
	})

	handlerset := wireHandlers(log, theDB, clientset, reposet, uc)
	middleware := wireMiddleware(log, cfg)
	router := wireRouter(log, metrics, cfg, handlerset, middleware)

	return &App{
		Log:         log,
		DB:          theDB,
		Router:      router,
		Cfg:         cfg,
		Repos:       reposet,
		Clients:     clientset,
		Planner:     uc,
		Metrics:     metrics,
		stopTracing: stopTracing,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Metrics != nil {
		var rdb *goredis.Client
		if a.Clients.Assessments != nil {
			rdb = a.Clients.Assessments.Client()
		}
		a.Metrics.StartRuntimeCollectors(ctx, a.DB, rdb, a.Log)
	}
}

// Run serves until ctx is cancelled or the listener fails. Cancellation
// drains in-flight requests before returning.
func (a *App) Run(ctx context.Context, addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	srv := http.NewServer(a.Log, addr, a.Router)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), envutil.Duration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.stopTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.stopTracing(ctx)
		cancel()
		a.stopTracing = nil
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
