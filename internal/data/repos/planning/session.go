package planning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type LearningSessionRepo interface {
	Create(dbc dbctx.Context, rows []*domain.LearningSession) ([]*domain.LearningSession, error)
	GetBySessionKey(dbc dbctx.Context, sessionKey string) (*domain.LearningSession, error)

	// ListByStudentSince returns sessions newest-first.
	ListByStudentSince(dbc dbctx.Context, studentID uuid.UUID, since time.Time) ([]*domain.LearningSession, error)
	ListCompletedByStudentSince(dbc dbctx.Context, studentID uuid.UUID, since time.Time) ([]*domain.LearningSession, error)
	ListRecentByStudent(dbc dbctx.Context, studentID uuid.UUID, limit int) ([]*domain.LearningSession, error)

	// SumDurationByConcepts aggregates total practice seconds per concept code
	// for one student.
	SumDurationByConcepts(dbc dbctx.Context, studentID uuid.UUID, codes []string) (map[string]int64, error)
}

type learningSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningSessionRepo(db *gorm.DB, baseLog *logger.Logger) LearningSessionRepo {
	return &learningSessionRepo{db: db, log: baseLog.With("repo", "LearningSessionRepo")}
}

func (r *learningSessionRepo) Create(dbc dbctx.Context, rows []*domain.LearningSession) ([]*domain.LearningSession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*domain.LearningSession{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *learningSessionRepo) GetBySessionKey(dbc dbctx.Context, sessionKey string) (*domain.LearningSession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if sessionKey == "" {
		return nil, nil
	}
	var row domain.LearningSession
	err := transaction.WithContext(dbc.Ctx).
		Where("session_key = ?", sessionKey).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *learningSessionRepo) ListByStudentSince(dbc dbctx.Context, studentID uuid.UUID, since time.Time) ([]*domain.LearningSession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*domain.LearningSession{}
	if studentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ? AND occurred_at >= ?", studentID, since).
		Order("occurred_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningSessionRepo) ListCompletedByStudentSince(dbc dbctx.Context, studentID uuid.UUID, since time.Time) ([]*domain.LearningSession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*domain.LearningSession{}
	if studentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ? AND completed = true AND occurred_at >= ?", studentID, since).
		Order("occurred_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningSessionRepo) ListRecentByStudent(dbc dbctx.Context, studentID uuid.UUID, limit int) ([]*domain.LearningSession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*domain.LearningSession{}
	if studentID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ?", studentID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type conceptDurationRow struct {
	ConceptCode  string `gorm:"column:concept_code"`
	TotalSeconds int64  `gorm:"column:total_seconds"`
}

func (r *learningSessionRepo) SumDurationByConcepts(dbc dbctx.Context, studentID uuid.UUID, codes []string) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[string]int64{}
	if studentID == uuid.Nil || len(codes) == 0 {
		return out, nil
	}
	var rows []conceptDurationRow
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.LearningSession{}).
		Select("concept_code, COALESCE(SUM(duration_seconds), 0) AS total_seconds").
		Where("student_id = ? AND concept_code IN ?", studentID, codes).
		Group("concept_code").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ConceptCode] = row.TotalSeconds
	}
	return out, nil
}
