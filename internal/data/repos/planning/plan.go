package planning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type StudyPlanRepo interface {
	Create(dbc dbctx.Context, rows []*domain.StudyPlan) ([]*domain.StudyPlan, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.StudyPlan, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.StudyPlan, error)
	GetByIDForStudent(dbc dbctx.Context, id uuid.UUID, studentID uuid.UUID) (*domain.StudyPlan, error)

	ListByStudent(dbc dbctx.Context, studentID uuid.UUID, statuses []domain.PlanStatus) ([]*domain.StudyPlan, error)
	ListActiveByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*domain.StudyPlan, error)
	CountActiveByStudent(dbc dbctx.Context, studentID uuid.UUID) (int64, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	// UpdateStatusIf applies a guarded status transition and reports whether a
	// row actually changed.
	UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, from []domain.PlanStatus, to domain.PlanStatus) (bool, error)

	// AdvanceAfterMastery bumps current_index to at least newIndex and adds
	// sessionHours to hours_completed in one statement, flipping status to
	// COMPLETED when the index reaches the end of the sequence. current_index
	// never decreases, including under concurrent advances. Returns the
	// post-update row, or (nil, nil) when the plan is not ACTIVE.
	AdvanceAfterMastery(dbc dbctx.Context, id uuid.UUID, newIndex int, sessionHours float64) (*domain.StudyPlan, error)
}

type studyPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyPlanRepo(db *gorm.DB, baseLog *logger.Logger) StudyPlanRepo {
	return &studyPlanRepo{db: db, log: baseLog.With("repo", "StudyPlanRepo")}
}

func (r *studyPlanRepo) Create(dbc dbctx.Context, rows []*domain.StudyPlan) ([]*domain.StudyPlan, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*domain.StudyPlan{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *studyPlanRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.StudyPlan, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.StudyPlan
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

func (r *studyPlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.StudyPlan, error) {
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

func (r *studyPlanRepo) GetByIDForStudent(dbc dbctx.Context, id uuid.UUID, studentID uuid.UUID) (*domain.StudyPlan, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || studentID == uuid.Nil {
		return nil, nil
	}
	var row domain.StudyPlan
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND student_id = ?", id, studentID).
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

func (r *studyPlanRepo) ListByStudent(dbc dbctx.Context, studentID uuid.UUID, statuses []domain.PlanStatus) ([]*domain.StudyPlan, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*domain.StudyPlan{}
	if studentID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).Where("student_id = ?", studentID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studyPlanRepo) ListActiveByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*domain.StudyPlan, error) {
	return r.ListByStudent(dbc, studentID, []domain.PlanStatus{domain.PlanStatusActive})
}

func (r *studyPlanRepo) CountActiveByStudent(dbc dbctx.Context, studentID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil {
		return 0, nil
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&domain.StudyPlan{}).
		Where("student_id = ? AND status = ?", studentID, domain.PlanStatusActive).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *studyPlanRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&domain.StudyPlan{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *studyPlanRepo) UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, from []domain.PlanStatus, to domain.PlanStatus) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || to == "" {
		return false, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&domain.StudyPlan{}).
		Where("id = ?", id)
	if len(from) == 1 {
		q = q.Where("status = ?", from[0])
	} else if len(from) > 1 {
		q = q.Where("status IN ?", from)
	}
	res := q.Updates(map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *studyPlanRepo) AdvanceAfterMastery(dbc dbctx.Context, id uuid.UUID, newIndex int, sessionHours float64) (*domain.StudyPlan, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || newIndex < 0 {
		return nil, nil
	}
	if sessionHours < 0 {
		sessionHours = 0
	}

	var out domain.StudyPlan
	res := transaction.WithContext(dbc.Ctx).Raw(
		`
UPDATE study_plans
SET
  current_index = GREATEST(current_index, ?),
  hours_completed = hours_completed + ?,
  status = CASE
    WHEN GREATEST(current_index, ?) >= jsonb_array_length(concept_sequence) THEN 'COMPLETED'
    ELSE status
  END,
  updated_at = now()
WHERE id = ? AND status = 'ACTIVE'
RETURNING *
`,
		newIndex, sessionHours, newIndex, id,
	).Scan(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}
