package planning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type MilestoneResultRepo interface {
	// Create inserts results; the (plan_id, week_number) unique index makes a
	// second evaluation of the same week surface as a unique violation.
	Create(dbc dbctx.Context, rows []*domain.MilestoneResult) ([]*domain.MilestoneResult, error)

	GetByPlanAndWeek(dbc dbctx.Context, planID uuid.UUID, weekNumber int) (*domain.MilestoneResult, error)
	ListByPlan(dbc dbctx.Context, planID uuid.UUID) ([]*domain.MilestoneResult, error)
	ListRecentFailedByPlan(dbc dbctx.Context, planID uuid.UUID, limit int) ([]*domain.MilestoneResult, error)
}

type milestoneResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMilestoneResultRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneResultRepo {
	return &milestoneResultRepo{db: db, log: baseLog.With("repo", "MilestoneResultRepo")}
}

func (r *milestoneResultRepo) Create(dbc dbctx.Context, rows []*domain.MilestoneResult) ([]*domain.MilestoneResult, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*domain.MilestoneResult{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *milestoneResultRepo) GetByPlanAndWeek(dbc dbctx.Context, planID uuid.UUID, weekNumber int) (*domain.MilestoneResult, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if planID == uuid.Nil || weekNumber <= 0 {
		return nil, nil
	}
	var row domain.MilestoneResult
	err := transaction.WithContext(dbc.Ctx).
		Where("plan_id = ? AND week_number = ?", planID, weekNumber).
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

func (r *milestoneResultRepo) ListByPlan(dbc dbctx.Context, planID uuid.UUID) ([]*domain.MilestoneResult, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*domain.MilestoneResult{}
	if planID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("plan_id = ?", planID).
		Order("week_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *milestoneResultRepo) ListRecentFailedByPlan(dbc dbctx.Context, planID uuid.UUID, limit int) ([]*domain.MilestoneResult, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*domain.MilestoneResult{}
	if planID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 3
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("plan_id = ? AND passed = false", planID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
