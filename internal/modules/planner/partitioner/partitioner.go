// Package partitioner buckets an ordered, estimated concept sequence into
// weekly milestones against an hours budget.
package partitioner

import (
	"math"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

// DefaultCheckEvery marks every 2nd week for a milestone check.
const DefaultCheckEvery = 2

// Item is one sequenced concept with its estimated hours.
type Item struct {
	Code  string
	Title string
	Hours float64
}

// Partition greedily packs items into weeks in sequence order. A week closes
// when the next item would push it over the budget and the week already has
// content; an item whose own estimate exceeds the budget still gets a week of
// its own rather than being dropped. checkEvery <= 1 flags every week.
//
// Concatenating the weeks' concept lists reproduces the input order exactly.
func Partition(items []Item, weeklyBudget float64, checkEvery int) []domain.WeeklyMilestone {
	if len(items) == 0 {
		return []domain.WeeklyMilestone{}
	}
	if checkEvery < 1 {
		checkEvery = 1
	}

	total := 0.0
	for _, it := range items {
		total += it.Hours
	}

	weeks := []domain.WeeklyMilestone{}
	current := domain.WeeklyMilestone{WeekNumber: 1, ConceptCodes: []string{}, ConceptTitles: []string{}}
	cumulative := 0.0

	closeWeek := func() {
		cumulative += current.EstimatedHours
		current.CumulativePct = progressPct(cumulative, total)
		current.HasMilestoneCheck = current.WeekNumber%checkEvery == 0
		weeks = append(weeks, current)
		current = domain.WeeklyMilestone{WeekNumber: current.WeekNumber + 1, ConceptCodes: []string{}, ConceptTitles: []string{}}
	}

	for _, it := range items {
		if len(current.ConceptCodes) > 0 && current.EstimatedHours+it.Hours > weeklyBudget {
			closeWeek()
		}
		current.ConceptCodes = append(current.ConceptCodes, it.Code)
		current.ConceptTitles = append(current.ConceptTitles, it.Title)
		current.EstimatedHours = round2(current.EstimatedHours + it.Hours)
	}
	if len(current.ConceptCodes) > 0 {
		closeWeek()
	}

	return weeks
}

func progressPct(done, total float64) int {
	if total <= 0 {
		return 100
	}
	pct := math.Round(done / total * 100)
	if pct > 100 {
		pct = 100
	}
	return int(pct)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
