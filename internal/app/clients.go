package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tutoriq/tutoriq-backend/internal/clients/redis"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
	"github.com/tutoriq/tutoriq-backend/internal/platform/neo4jdb"
	"github.com/tutoriq/tutoriq-backend/internal/platform/textgen"
)

type Clients struct {
	Graph       *neo4jdb.Client
	Assessments redis.MilestoneSessionStore
	AI          textgen.Client

	log *logger.Logger
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var assessments redis.MilestoneSessionStore
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		store, err := redis.NewMilestoneSessionStore(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis session store: %w", err)
		}
		assessments = store
	} else {
		log.Warn("REDIS_ADDR not set, milestone assessments are unavailable")
	}

	// Neo4j (optional mirror of the prerequisite graph)
	graph, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		if assessments != nil {
			_ = assessments.Close()
		}
		return Clients{}, fmt.Errorf("init neo4j client: %w", err)
	}
	if graph == nil {
		log.Warn("NEO4J_URI not set, prerequisite lookups fall back to Postgres")
	}

	// Text generation
	var ai textgen.Client
	if strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != "" {
		client, err := textgen.NewClient(log)
		if err != nil {
			if assessments != nil {
				_ = assessments.Close()
			}
			if graph != nil {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = graph.Close(closeCtx)
				cancel()
			}
			return Clients{}, fmt.Errorf("init textgen client: %w", err)
		}
		ai = client
	} else {
		log.Warn("OPENAI_API_KEY not set, using deterministic content templates")
	}

	return Clients{
		Graph:       graph,
		Assessments: assessments,
		AI:          ai,
		log:         log,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Assessments != nil {
		if err := c.Assessments.Close(); err != nil && c.log != nil {
			c.log.Warn("close redis session store", "error", err)
		}
		c.Assessments = nil
	}
	if c.Graph != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.Graph.Close(ctx); err != nil && c.log != nil {
			c.log.Warn("close neo4j driver", "error", err)
		}
		cancel()
		c.Graph = nil
	}
}
