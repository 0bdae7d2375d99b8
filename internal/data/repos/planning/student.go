package planning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type StudentProfileRepo interface {
	Create(dbc dbctx.Context, rows []*domain.StudentProfile) ([]*domain.StudentProfile, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.StudentProfile, error)

	// UpsertByID inserts or refreshes profiles owned by the identity system
	// upstream; IDs arrive preassigned.
	UpsertByID(dbc dbctx.Context, rows []*domain.StudentProfile) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type studentProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentProfileRepo(db *gorm.DB, baseLog *logger.Logger) StudentProfileRepo {
	return &studentProfileRepo{db: db, log: baseLog.With("repo", "StudentProfileRepo")}
}

func (r *studentProfileRepo) Create(dbc dbctx.Context, rows []*domain.StudentProfile) ([]*domain.StudentProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*domain.StudentProfile{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *studentProfileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.StudentProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.StudentProfile
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND deleted_at IS NULL", id).
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

func (r *studentProfileRepo) UpsertByID(dbc dbctx.Context, rows []*domain.StudentProfile) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "grade_level", "timezone", "updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *studentProfileRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&domain.StudentProfile{}).
		Where("id = ?", id).
		Updates(updates).Error
}
