package planning

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type ConceptEdgeRepo interface {
	Upsert(dbc dbctx.Context, rows []*domain.ConceptEdge) error

	// EdgesAmong returns edges whose endpoints are both within codes. This is
	// the relational fallback for the graph mirror.
	EdgesAmong(dbc dbctx.Context, codes []string) ([]*domain.ConceptEdge, error)

	DeleteAmong(dbc dbctx.Context, codes []string) error
}

type conceptEdgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptEdgeRepo(db *gorm.DB, baseLog *logger.Logger) ConceptEdgeRepo {
	return &conceptEdgeRepo{db: db, log: baseLog.With("repo", "ConceptEdgeRepo")}
}

func (r *conceptEdgeRepo) Upsert(dbc dbctx.Context, rows []*domain.ConceptEdge) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_code"}, {Name: "to_code"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *conceptEdgeRepo) EdgesAmong(dbc dbctx.Context, codes []string) ([]*domain.ConceptEdge, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*domain.ConceptEdge{}
	if len(codes) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("from_code IN ? AND to_code IN ?", codes, codes).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptEdgeRepo) DeleteAmong(dbc dbctx.Context, codes []string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(codes) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("from_code IN ? AND to_code IN ?", codes, codes).
		Delete(&domain.ConceptEdge{}).Error
}
