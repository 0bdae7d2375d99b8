package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Concept is an immutable curriculum unit. Prerequisite structure lives in
// ConceptEdge rows (and their graph mirror), not on the concept itself.
type Concept struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex:idx_concepts_code" json:"code"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	Domain      string    `gorm:"column:domain;not null;index" json:"domain"`
	GradeLevel  string    `gorm:"column:grade_level;not null" json:"grade_level"`
	// Difficulty is an integer 1-10; estimation clamps out-of-range values.
	Difficulty int       `gorm:"column:difficulty;not null;default:1" json:"difficulty"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Concept) TableName() string { return "concepts" }

// ConceptEdge is a directed prerequisite edge: FromCode must be learned
// before ToCode. The pair is unique; cycles are possible by data error and
// are tolerated downstream.
type ConceptEdge struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FromCode  string    `gorm:"column:from_code;not null;index:idx_concept_edges_pair,unique,priority:1" json:"from_code"`
	ToCode    string    `gorm:"column:to_code;not null;index:idx_concept_edges_pair,unique,priority:2" json:"to_code"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ConceptEdge) TableName() string { return "concept_edges" }

// GradeRank maps a grade level label to a sortable rank: K is 0, numeric
// grades map to themselves. Unknown labels rank -1 so they sort first
// rather than failing.
func GradeRank(level string) int {
	s := strings.ToUpper(strings.TrimSpace(level))
	if s == "K" || s == "KINDERGARTEN" {
		return 0
	}
	s = strings.TrimPrefix(s, "GRADE_")
	s = strings.TrimPrefix(s, "GRADE ")
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 12 {
		return n
	}
	return -1
}
