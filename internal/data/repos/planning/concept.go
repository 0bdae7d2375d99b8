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

type ConceptRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Concept) ([]*domain.Concept, error)

	GetByCodes(dbc dbctx.Context, codes []string) ([]*domain.Concept, error)
	GetByCode(dbc dbctx.Context, code string) (*domain.Concept, error)
	ListByDomain(dbc dbctx.Context, conceptDomain string) ([]*domain.Concept, error)

	UpsertByCode(dbc dbctx.Context, rows []*domain.Concept) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type conceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRepo {
	return &conceptRepo{db: db, log: baseLog.With("repo", "ConceptRepo")}
}

func (r *conceptRepo) Create(dbc dbctx.Context, rows []*domain.Concept) ([]*domain.Concept, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*domain.Concept{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conceptRepo) GetByCodes(dbc dbctx.Context, codes []string) ([]*domain.Concept, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Concept
	if len(codes) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("code IN ?", codes).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptRepo) GetByCode(dbc dbctx.Context, code string) (*domain.Concept, error) {
	if code == "" {
		return nil, nil
	}
	rows, err := r.GetByCodes(dbc, []string{code})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *conceptRepo) ListByDomain(dbc dbctx.Context, conceptDomain string) ([]*domain.Concept, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Concept
	if conceptDomain == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("domain = ?", conceptDomain).
		Order("grade_level ASC, difficulty ASC, code ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptRepo) UpsertByCode(dbc dbctx.Context, rows []*domain.Concept) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "description", "domain", "grade_level", "difficulty", "updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *conceptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&domain.Concept{}).
		Where("id = ?", id).
		Updates(updates).Error
}
