package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "ACTIVE"
	PlanStatusPaused    PlanStatus = "PAUSED"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusAbandoned PlanStatus = "ABANDONED"
)

// WeeklyMilestone is one week of a plan. Stored as a JSON array on the plan
// row; weeks are 1-based and contiguous.
type WeeklyMilestone struct {
	WeekNumber        int      `json:"week_number"`
	ConceptCodes      []string `json:"concept_codes"`
	ConceptTitles     []string `json:"concept_titles"`
	EstimatedHours    float64  `json:"estimated_hours"`
	CumulativePct     int      `json:"cumulative_pct"`
	HasMilestoneCheck bool     `json:"has_milestone_check"`
}

// StudyPlan is the planner's central artifact: an ordered concept sequence
// partitioned into weekly milestones, plus progress and pacing state.
// ConceptSequence, ConceptHours, and Milestones are JSON snapshots taken at
// build time; adaptation refreshes pacing fields but never rewrites them.
type StudyPlan struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID            uuid.UUID      `gorm:"column:student_id;type:uuid;not null;index" json:"student_id"`
	GoalID               uuid.UUID      `gorm:"column:goal_id;type:uuid;not null;index" json:"goal_id"`
	Status               PlanStatus     `gorm:"column:status;not null;default:'ACTIVE';index" json:"status"`
	ConceptSequence      datatypes.JSON `gorm:"column:concept_sequence;type:jsonb;not null" json:"concept_sequence"`
	ConceptHours         datatypes.JSON `gorm:"column:concept_hours;type:jsonb" json:"concept_hours,omitempty"`
	CurrentIndex         int            `gorm:"column:current_index;not null;default:0" json:"current_index"`
	WeeklyHours          float64        `gorm:"column:weekly_hours;not null" json:"weekly_hours"`
	TotalEstimatedHours  float64        `gorm:"column:total_estimated_hours;not null" json:"total_estimated_hours"`
	HoursCompleted       float64        `gorm:"column:hours_completed;not null;default:0" json:"hours_completed"`
	Milestones           datatypes.JSON `gorm:"column:milestones;type:jsonb;not null" json:"milestones"`
	Narrative            string         `gorm:"column:narrative;type:text" json:"narrative"`
	TargetDate           *time.Time     `gorm:"column:target_date" json:"target_date,omitempty"`
	ProjectedEndDate     time.Time      `gorm:"column:projected_end_date;not null" json:"projected_end_date"`
	OnTrack              bool           `gorm:"column:on_track;not null;default:true" json:"on_track"`
	VelocityHoursPerWeek float64        `gorm:"column:velocity_hours_per_week;not null;default:0" json:"velocity_hours_per_week"`
	LastRecalculatedAt   time.Time      `gorm:"column:last_recalculated_at;not null;default:now()" json:"last_recalculated_at"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (StudyPlan) TableName() string { return "study_plans" }

// SequenceCodes decodes the stored concept sequence. A decode failure is
// treated as an empty sequence; builders always persist a valid array.
func (p *StudyPlan) SequenceCodes() []string {
	var codes []string
	if len(p.ConceptSequence) > 0 {
		_ = json.Unmarshal(p.ConceptSequence, &codes)
	}
	return codes
}

// SequenceHours decodes the per-concept hour estimates, aligned with
// SequenceCodes. Entries for the already-mastered prefix are zero.
func (p *StudyPlan) SequenceHours() []float64 {
	var hours []float64
	if len(p.ConceptHours) > 0 {
		_ = json.Unmarshal(p.ConceptHours, &hours)
	}
	return hours
}

// EstimateFor returns the build-time hour estimate for one concept in the
// sequence, or 0 when the concept or its estimate is missing.
func (p *StudyPlan) EstimateFor(conceptCode string) float64 {
	codes := p.SequenceCodes()
	hours := p.SequenceHours()
	for i, code := range codes {
		if code == conceptCode && i < len(hours) {
			return hours[i]
		}
	}
	return 0
}

// MilestoneWeeks decodes the stored weekly milestones.
func (p *StudyPlan) MilestoneWeeks() []WeeklyMilestone {
	var weeks []WeeklyMilestone
	if len(p.Milestones) > 0 {
		_ = json.Unmarshal(p.Milestones, &weeks)
	}
	return weeks
}
