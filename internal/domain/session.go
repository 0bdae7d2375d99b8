package domain

import (
	"time"

	"github.com/google/uuid"
)

// LearningSession records one completed (or abandoned) practice session as
// reported by the tutoring runtime. SessionKey is the reporter's idempotency
// key; re-reports of the same key are ignored.
type LearningSession struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionKey        string    `gorm:"column:session_key;not null;uniqueIndex:idx_sessions_key" json:"session_key"`
	StudentID         uuid.UUID `gorm:"column:student_id;type:uuid;not null;index:idx_sessions_student_time,priority:1" json:"student_id"`
	ConceptCode       string    `gorm:"column:concept_code;not null;index" json:"concept_code"`
	DurationSeconds   int       `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`
	QuestionsAnswered int       `gorm:"column:questions_answered;not null;default:0" json:"questions_answered"`
	QuestionsCorrect  int       `gorm:"column:questions_correct;not null;default:0" json:"questions_correct"`
	Completed         bool      `gorm:"column:completed;not null;default:false" json:"completed"`
	OccurredAt        time.Time `gorm:"column:occurred_at;not null;index:idx_sessions_student_time,priority:2,sort:desc" json:"occurred_at"`
	CreatedAt         time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (LearningSession) TableName() string { return "learning_sessions" }

// Accuracy is QuestionsCorrect over QuestionsAnswered, 0 when nothing was
// answered.
func (s *LearningSession) Accuracy() float64 {
	if s.QuestionsAnswered <= 0 {
		return 0
	}
	return float64(s.QuestionsCorrect) / float64(s.QuestionsAnswered)
}
