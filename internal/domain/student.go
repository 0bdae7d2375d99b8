package domain

import (
	"time"

	"github.com/google/uuid"
)

// StudentProfile is the planner's view of a learner. Identity and auth live
// upstream; this row carries only what estimation and messaging need.
type StudentProfile struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DisplayName string     `gorm:"column:display_name;not null" json:"display_name"`
	GradeLevel  string     `gorm:"column:grade_level;not null" json:"grade_level"`
	Timezone    string     `gorm:"column:timezone;not null;default:'UTC'" json:"timezone"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudentProfile) TableName() string { return "student_profiles" }

// MasteryThreshold is the probability at or above which a concept counts as
// mastered.
const MasteryThreshold = 0.85

// ConceptMastery tracks a student's estimated mastery of one concept.
// Probability is in [0,1]; rows are upserted by the mastery sync feed and
// by session completion.
type ConceptMastery struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID       uuid.UUID  `gorm:"column:student_id;type:uuid;not null;index:idx_mastery_student_concept,unique,priority:1" json:"student_id"`
	ConceptCode     string     `gorm:"column:concept_code;not null;index:idx_mastery_student_concept,unique,priority:2" json:"concept_code"`
	Probability     float64    `gorm:"column:probability;not null;default:0" json:"probability"`
	PracticeCount   int        `gorm:"column:practice_count;not null;default:0" json:"practice_count"`
	LastPracticedAt *time.Time `gorm:"column:last_practiced_at" json:"last_practiced_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ConceptMastery) TableName() string { return "concept_masteries" }

func (m *ConceptMastery) Mastered() bool { return m.Probability >= MasteryThreshold }
