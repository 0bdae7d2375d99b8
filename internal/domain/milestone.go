package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MilestoneState string

const (
	MilestoneStateNotStarted MilestoneState = "NOT_STARTED"
	MilestoneStateInProgress MilestoneState = "IN_PROGRESS"
	MilestoneStateEvaluated  MilestoneState = "EVALUATED"
)

// ConceptScore is the per-concept breakdown of one evaluated milestone.
type ConceptScore struct {
	ConceptCode string `json:"concept_code"`
	Correct     int    `json:"correct"`
	Total       int    `json:"total"`
	Passed      bool   `json:"passed"`
}

// MilestoneResult is the persisted outcome of a weekly milestone check.
// One row per (plan, week); its existence makes the milestone EVALUATED and
// blocks re-assessment of that week.
type MilestoneResult struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanID         uuid.UUID      `gorm:"column:plan_id;type:uuid;not null;index:idx_milestone_plan_week,unique,priority:1" json:"plan_id"`
	StudentID      uuid.UUID      `gorm:"column:student_id;type:uuid;not null;index" json:"student_id"`
	WeekNumber     int            `gorm:"column:week_number;not null;index:idx_milestone_plan_week,unique,priority:2" json:"week_number"`
	Passed         bool           `gorm:"column:passed;not null" json:"passed"`
	Score          int            `gorm:"column:score;not null" json:"score"`
	TestedConcepts datatypes.JSON `gorm:"column:tested_concepts;type:jsonb;not null" json:"tested_concepts"`
	ConceptScores  datatypes.JSON `gorm:"column:concept_scores;type:jsonb;not null" json:"concept_scores"`
	Message        string         `gorm:"column:message;type:text" json:"message"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (MilestoneResult) TableName() string { return "milestone_results" }

// QuestionOption is one answer choice. Labels are single letters starting
// at "A"; exactly one option per question carries IsCorrect.
type QuestionOption struct {
	Label     string `json:"label"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// MilestoneQuestion is one generated assessment question. Questions live
// only in the transient milestone session, never in Postgres.
type MilestoneQuestion struct {
	ID          string           `json:"id"`
	ConceptCode string           `json:"concept_code"`
	Text        string           `json:"text"`
	Options     []QuestionOption `json:"options"`
	Explanation string           `json:"explanation,omitempty"`
}

// MilestoneSession is an in-flight assessment, stored in Redis under a TTL.
// Answers maps question ID to the selected option label.
type MilestoneSession struct {
	PlanID     uuid.UUID           `json:"plan_id"`
	StudentID  uuid.UUID           `json:"student_id"`
	WeekNumber int                 `json:"week_number"`
	Questions  []MilestoneQuestion `json:"questions"`
	Answers    map[string]string   `json:"answers,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
}
