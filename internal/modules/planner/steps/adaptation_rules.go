package steps

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

// Rule identifiers, stable across releases; clients key UI copy off them.
const (
	RuleSlowConcept     = "slow_concept"
	RuleFastLearner     = "fast_learner"
	RuleInactivity      = "inactivity_review"
	RuleFailedReviews   = "failed_review_persistence"
	RuleBehindSchedule  = "behind_schedule"
	RuleAheadOfSchedule = "ahead_of_schedule"
)

const (
	slowConceptFactor    = 2.0
	fastLearnerFactor    = 0.85
	fastLearnerWindow    = 3
	inactivityGap        = 3 * 24 * time.Hour
	inactivityMasteryBar = 0.9
	inactivityReviewMax  = 2
	failedResultsWindow  = 3
	behindScheduleDays   = 14
	aheadScheduleDays    = 28
)

// AdaptationAction is the transient outcome of one rule evaluation. Actions
// are returned to the caller, never persisted.
type AdaptationAction struct {
	Rule        string   `json:"rule"`
	Applied     bool     `json:"applied"`
	Description string   `json:"description"`
	Detail      string   `json:"detail,omitempty"`
	Concepts    []string `json:"concepts,omitempty"`
}

// PlanSnapshot is everything the rules read: one plan's state plus the
// student's recent history, assembled once per adaptation run so each rule
// stays a pure function.
type PlanSnapshot struct {
	Plan          *domain.StudyPlan
	Now           time.Time
	JustCompleted string

	Sequence     []string
	Hours        []float64
	CurrentIndex int

	Difficulty     map[string]int
	Mastery        map[string]float64
	ActualSeconds  map[string]int64
	RecentSessions []*domain.LearningSession // newest first
	FailedResults  []*domain.MilestoneResult // newest first, failed only

	Projected time.Time
}

func (s PlanSnapshot) estimateAt(index int) float64 {
	if index < 0 || index >= len(s.Hours) {
		return 0
	}
	return s.Hours[index]
}

func (s PlanSnapshot) estimateFor(code string) float64 {
	for i, c := range s.Sequence {
		if c == code {
			return s.estimateAt(i)
		}
	}
	return 0
}

func (s PlanSnapshot) actualHours(code string) float64 {
	return hoursFromSeconds(s.ActualSeconds[code])
}

// EvaluateRules runs all six adaptation rules over one snapshot. Rules are
// independent; order matches the rule numbering so the first applied
// message-bearing rule is deterministic.
func EvaluateRules(snap PlanSnapshot) []AdaptationAction {
	return []AdaptationAction{
		ruleSlowConcept(snap),
		ruleFastLearner(snap),
		ruleInactivity(snap),
		ruleFailedReviews(snap),
		ruleBehindSchedule(snap),
		ruleAheadOfSchedule(snap),
	}
}

// ruleSlowConcept flags a just-completed concept that took more than twice
// its estimate, and lists remaining concepts in the same difficulty band
// (within one point) as likely to run slow too. Informational only; stored
// estimates are not rewritten.
func ruleSlowConcept(snap PlanSnapshot) AdaptationAction {
	action := AdaptationAction{Rule: RuleSlowConcept, Description: "Concept took much longer than estimated"}
	code := strings.TrimSpace(snap.JustCompleted)
	if code == "" {
		return action
	}
	estimate := snap.estimateFor(code)
	actual := snap.actualHours(code)
	if estimate <= 0 || actual <= estimate*slowConceptFactor {
		return action
	}

	action.Applied = true
	action.Detail = fmt.Sprintf("%s took %sh against a %sh estimate", code, fmtHours(actual), fmtHours(estimate))

	band := snap.Difficulty[code]
	for i := snap.CurrentIndex; i < len(snap.Sequence); i++ {
		c := snap.Sequence[i]
		if c == code {
			continue
		}
		d, ok := snap.Difficulty[c]
		if !ok {
			continue
		}
		if d >= band-1 && d <= band+1 {
			action.Concepts = append(action.Concepts, c)
		}
	}
	return action
}

// ruleFastLearner fires when each of the last three completed concepts beat
// 85% of its estimate.
func ruleFastLearner(snap PlanSnapshot) AdaptationAction {
	action := AdaptationAction{Rule: RuleFastLearner, Description: "Recent concepts completed well ahead of estimates"}
	if snap.CurrentIndex < fastLearnerWindow {
		return action
	}

	details := make([]string, 0, fastLearnerWindow)
	for i := snap.CurrentIndex - fastLearnerWindow; i < snap.CurrentIndex; i++ {
		code := snap.Sequence[i]
		estimate := snap.estimateAt(i)
		actual := snap.actualHours(code)
		if estimate <= 0 || actual <= 0 || actual >= estimate*fastLearnerFactor {
			return action
		}
		details = append(details, fmt.Sprintf("%s %sh/%sh", code, fmtHours(actual), fmtHours(estimate)))
	}

	action.Applied = true
	action.Detail = "last " + fmtInt(fastLearnerWindow) + " concepts ran fast: " + strings.Join(details, ", ")
	return action
}

// ruleInactivity fires on a gap of three or more days between the two most
// recent sessions, flagging up to two pre-gap concepts that are not yet at
// 0.9 mastery for review.
func ruleInactivity(snap PlanSnapshot) AdaptationAction {
	action := AdaptationAction{Rule: RuleInactivity, Description: "Study gap detected; earlier concepts may need review"}
	if len(snap.RecentSessions) < 2 {
		return action
	}
	latest := snap.RecentSessions[0]
	previous := snap.RecentSessions[1]
	gap := latest.OccurredAt.Sub(previous.OccurredAt)
	if gap < inactivityGap {
		return action
	}

	action.Applied = true
	action.Detail = fmt.Sprintf("%d days since the previous session", int(gap.Hours()/24))

	seen := map[string]bool{}
	for _, s := range snap.RecentSessions[1:] {
		if s == nil || s.ConceptCode == "" || seen[s.ConceptCode] {
			continue
		}
		seen[s.ConceptCode] = true
		if snap.Mastery[s.ConceptCode] >= inactivityMasteryBar {
			continue
		}
		action.Concepts = append(action.Concepts, s.ConceptCode)
		if len(action.Concepts) >= inactivityReviewMax {
			break
		}
	}
	return action
}

// ruleFailedReviews fires when recently failed milestone checks still
// reference concepts below the mastery threshold, meaning the remediation
// has not landed yet.
func ruleFailedReviews(snap PlanSnapshot) AdaptationAction {
	action := AdaptationAction{Rule: RuleFailedReviews, Description: "Previously failed milestone concepts still below mastery"}

	results := snap.FailedResults
	if len(results) > failedResultsWindow {
		results = results[:failedResultsWindow]
	}

	seen := map[string]bool{}
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, code := range failedConceptCodes(r) {
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			if snap.Mastery[code] >= domain.MasteryThreshold {
				continue
			}
			action.Concepts = append(action.Concepts, code)
		}
	}
	if len(action.Concepts) == 0 {
		return action
	}

	action.Applied = true
	action.Detail = fmtInt(len(action.Concepts)) + " concepts from failed checks still need remediation"
	return action
}

// failedConceptCodes extracts the concepts a result flagged as failed,
// falling back to every tested concept for legacy rows without per-concept
// scores.
func failedConceptCodes(r *domain.MilestoneResult) []string {
	var scores []domain.ConceptScore
	if len(r.ConceptScores) > 0 {
		_ = json.Unmarshal(r.ConceptScores, &scores)
	}
	out := make([]string, 0, len(scores))
	for _, s := range scores {
		if !s.Passed {
			out = append(out, s.ConceptCode)
		}
	}
	if len(out) > 0 {
		return out
	}
	var tested []string
	if len(r.TestedConcepts) > 0 {
		_ = json.Unmarshal(r.TestedConcepts, &tested)
	}
	return tested
}

// ruleBehindSchedule fires when the live projection runs more than 14 days
// past the target date.
func ruleBehindSchedule(snap PlanSnapshot) AdaptationAction {
	action := AdaptationAction{Rule: RuleBehindSchedule, Description: "Projected completion is well past the target date"}
	days := scheduleDriftDays(snap)
	if days <= behindScheduleDays {
		return action
	}
	action.Applied = true
	action.Detail = fmt.Sprintf("projected %s is %d days past the %s target",
		fmtDate(snap.Projected), days, fmtDate(*snap.Plan.TargetDate))
	return action
}

// ruleAheadOfSchedule fires when the live projection beats the target date
// by more than 28 days.
func ruleAheadOfSchedule(snap PlanSnapshot) AdaptationAction {
	action := AdaptationAction{Rule: RuleAheadOfSchedule, Description: "Projected completion is well ahead of the target date"}
	days := scheduleDriftDays(snap)
	if days >= -aheadScheduleDays {
		return action
	}
	action.Applied = true
	action.Detail = fmt.Sprintf("projected %s is %d days before the %s target",
		fmtDate(snap.Projected), -days, fmtDate(*snap.Plan.TargetDate))
	return action
}

// scheduleDriftDays is positive when behind target, negative when ahead,
// zero without a target date.
func scheduleDriftDays(snap PlanSnapshot) int {
	if snap.Plan == nil || snap.Plan.TargetDate == nil || snap.Projected.IsZero() {
		return 0
	}
	return int(snap.Projected.Sub(snap.Plan.TargetDate.UTC()).Hours() / 24)
}
