package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GoalCategory string

const (
	GoalCategoryGradeProficiency GoalCategory = "GRADE_PROFICIENCY"
	GoalCategoryExamPrep         GoalCategory = "EXAM_PREP"
	GoalCategorySkillBuilding    GoalCategory = "SKILL_BUILDING"
	GoalCategoryCustom           GoalCategory = "CUSTOM"
)

// LearningGoal is a curated target the planner builds plans toward.
// RequiredConcepts is a JSON array of concept codes; order is not
// significant, sequencing derives order from the prerequisite graph.
type LearningGoal struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name             string         `gorm:"column:name;not null;uniqueIndex:idx_goals_name" json:"name"`
	Description      string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Category         GoalCategory   `gorm:"column:category;not null;index" json:"category"`
	Domain           string         `gorm:"column:domain;not null;index" json:"domain"`
	TargetGradeLevel string         `gorm:"column:target_grade_level;not null" json:"target_grade_level"`
	RequiredConcepts datatypes.JSON `gorm:"column:required_concepts;type:jsonb;not null" json:"required_concepts"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (LearningGoal) TableName() string { return "learning_goals" }
