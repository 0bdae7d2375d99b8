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

type ConceptMasteryRepo interface {
	GetByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*domain.ConceptMastery, error)
	GetByStudentAndCodes(dbc dbctx.Context, studentID uuid.UUID, codes []string) ([]*domain.ConceptMastery, error)

	// Upsert overwrites probability and practice state from the authoritative
	// mastery feed.
	Upsert(dbc dbctx.Context, rows []*domain.ConceptMastery) error

	// RecordPractice upserts one row from a completed session: probability is
	// replaced, practice_count increments in SQL so concurrent reports never
	// lose a count.
	RecordPractice(dbc dbctx.Context, studentID uuid.UUID, conceptCode string, probability float64, practicedAt time.Time) error
}

type conceptMasteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptMasteryRepo(db *gorm.DB, baseLog *logger.Logger) ConceptMasteryRepo {
	return &conceptMasteryRepo{db: db, log: baseLog.With("repo", "ConceptMasteryRepo")}
}

func (r *conceptMasteryRepo) GetByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*domain.ConceptMastery, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.ConceptMastery
	if studentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ?", studentID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptMasteryRepo) GetByStudentAndCodes(dbc dbctx.Context, studentID uuid.UUID, codes []string) ([]*domain.ConceptMastery, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.ConceptMastery
	if studentID == uuid.Nil || len(codes) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ? AND concept_code IN ?", studentID, codes).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptMasteryRepo) Upsert(dbc dbctx.Context, rows []*domain.ConceptMastery) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "concept_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"probability", "practice_count", "last_practiced_at", "updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *conceptMasteryRepo) RecordPractice(dbc dbctx.Context, studentID uuid.UUID, conceptCode string, probability float64, practicedAt time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || conceptCode == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Exec(`
INSERT INTO concept_masteries (student_id, concept_code, probability, practice_count, last_practiced_at, created_at, updated_at)
VALUES (?, ?, ?, 1, ?, now(), now())
ON CONFLICT (student_id, concept_code) DO UPDATE SET
  probability = EXCLUDED.probability,
  practice_count = concept_masteries.practice_count + 1,
  last_practiced_at = EXCLUDED.last_practiced_at,
  updated_at = now()
`, studentID, conceptCode, probability, practicedAt).Error
}
