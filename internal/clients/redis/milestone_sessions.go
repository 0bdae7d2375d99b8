package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/envutil"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

// MilestoneSessionStore holds in-flight assessment attempts between the
// generate and submit calls. Entries expire on a TTL so abandoned attempts
// never leak; a shared Redis keeps the two calls instance-agnostic.
type MilestoneSessionStore interface {
	Put(ctx context.Context, session *domain.MilestoneSession) error
	Get(ctx context.Context, planID uuid.UUID, weekNumber int, studentID uuid.UUID) (*domain.MilestoneSession, error)

	// Take atomically fetches and deletes the session, so a double submit
	// cannot evaluate the same attempt twice.
	Take(ctx context.Context, planID uuid.UUID, weekNumber int, studentID uuid.UUID) (*domain.MilestoneSession, error)
	Delete(ctx context.Context, planID uuid.UUID, weekNumber int, studentID uuid.UUID) error

	Client() *goredis.Client
	Close() error
}

type milestoneSessionStore struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewMilestoneSessionStore(log *logger.Logger) (MilestoneSessionStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttlMinutes := envutil.Int("PLANNER_ASSESSMENT_TTL_MINUTES", 120)
	if ttlMinutes <= 0 {
		ttlMinutes = 120
	}

	return &milestoneSessionStore{
		log: log.With("service", "MilestoneSessionStore"),
		rdb: rdb,
		ttl: time.Duration(ttlMinutes) * time.Minute,
	}, nil
}

func sessionKey(planID uuid.UUID, weekNumber int, studentID uuid.UUID) string {
	return fmt.Sprintf("milestone_session:%s:%d:%s", planID, weekNumber, studentID)
}

func (s *milestoneSessionStore) Put(ctx context.Context, session *domain.MilestoneSession) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("milestone session store not initialized")
	}
	if session == nil || session.PlanID == uuid.Nil || session.StudentID == uuid.Nil || session.WeekNumber <= 0 {
		return fmt.Errorf("milestone session store: invalid session")
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	key := sessionKey(session.PlanID, session.WeekNumber, session.StudentID)
	return s.rdb.Set(ctx, key, raw, s.ttl).Err()
}

func (s *milestoneSessionStore) Get(ctx context.Context, planID uuid.UUID, weekNumber int, studentID uuid.UUID) (*domain.MilestoneSession, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("milestone session store not initialized")
	}
	raw, err := s.rdb.Get(ctx, sessionKey(planID, weekNumber, studentID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(raw)
}

func (s *milestoneSessionStore) Take(ctx context.Context, planID uuid.UUID, weekNumber int, studentID uuid.UUID) (*domain.MilestoneSession, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("milestone session store not initialized")
	}
	raw, err := s.rdb.GetDel(ctx, sessionKey(planID, weekNumber, studentID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(raw)
}

func (s *milestoneSessionStore) Delete(ctx context.Context, planID uuid.UUID, weekNumber int, studentID uuid.UUID) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("milestone session store not initialized")
	}
	return s.rdb.Del(ctx, sessionKey(planID, weekNumber, studentID)).Err()
}

func (s *milestoneSessionStore) Client() *goredis.Client {
	if s == nil {
		return nil
	}
	return s.rdb
}

func (s *milestoneSessionStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func decodeSession(raw []byte) (*domain.MilestoneSession, error) {
	var out domain.MilestoneSession
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("milestone session decode: %w", err)
	}
	return &out, nil
}
