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

type LearningGoalRepo interface {
	Create(dbc dbctx.Context, rows []*domain.LearningGoal) ([]*domain.LearningGoal, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.LearningGoal, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.LearningGoal, error)
	List(dbc dbctx.Context) ([]*domain.LearningGoal, error)

	UpsertByName(dbc dbctx.Context, rows []*domain.LearningGoal) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type learningGoalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningGoalRepo(db *gorm.DB, baseLog *logger.Logger) LearningGoalRepo {
	return &learningGoalRepo{db: db, log: baseLog.With("repo", "LearningGoalRepo")}
}

func (r *learningGoalRepo) Create(dbc dbctx.Context, rows []*domain.LearningGoal) ([]*domain.LearningGoal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*domain.LearningGoal{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *learningGoalRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.LearningGoal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.LearningGoal
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningGoalRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.LearningGoal, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *learningGoalRepo) List(dbc dbctx.Context) ([]*domain.LearningGoal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*domain.LearningGoal{}
	if err := transaction.WithContext(dbc.Ctx).
		Order("category ASC, name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningGoalRepo) UpsertByName(dbc dbctx.Context, rows []*domain.LearningGoal) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description", "category", "domain", "target_grade_level", "required_concepts", "updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *learningGoalRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&domain.LearningGoal{}).
		Where("id = ?", id).
		Updates(updates).Error
}
