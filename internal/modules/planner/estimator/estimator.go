// Package estimator computes hours-to-mastery per concept for a specific
// learner from difficulty, grade gap, observed velocity, and partial mastery.
package estimator

import "math"

// baseHoursByDifficulty maps difficulty 1-10 to nominal hours for an
// on-grade learner with no history and no prior exposure.
var baseHoursByDifficulty = [10]float64{
	0.4, 0.55, 0.7, 0.85, 1.0, 1.3, 1.6, 2.0, 2.5, 3.0,
}

// MinConceptHours is the floor for any non-mastered concept, so every
// scheduled concept occupies visible plan time.
const MinConceptHours = 0.25

// BaseHours returns the nominal hours for a difficulty, clamping out-of-range
// difficulties into [1,10].
func BaseHours(difficulty int) float64 {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 10 {
		difficulty = 10
	}
	return baseHoursByDifficulty[difficulty-1]
}

// GradeFactor scales time by how far the concept sits above or below the
// student's grade. Positive gap means the concept is above grade level.
func GradeFactor(studentGradeRank, conceptGradeRank int) float64 {
	gap := conceptGradeRank - studentGradeRank
	switch {
	case gap <= -2:
		return 0.6
	case gap == -1:
		return 0.8
	case gap == 0:
		return 1.0
	case gap == 1:
		return 1.2
	default:
		return 1.5
	}
}

// VelocityFactor converts a measured velocity multiplier into a time
// multiplier. Unknown or non-positive velocity is baseline. The clamp keeps
// any learner within 2x of baseline in either direction.
func VelocityFactor(velocity *float64) float64 {
	if velocity == nil || *velocity <= 0 {
		return 1.0
	}
	f := 1.0 / *velocity
	if f < 0.5 {
		return 0.5
	}
	if f > 2.0 {
		return 2.0
	}
	return f
}

// MasteryDiscount steps remaining work down as mastery rises. Above 0.85 the
// concept contributes zero hours and drops out of active scheduling.
func MasteryDiscount(probability float64) float64 {
	switch {
	case probability <= 0.3:
		return 1.0
	case probability <= 0.5:
		return 0.75
	case probability <= 0.7:
		return 0.5
	case probability <= 0.85:
		return 0.3
	default:
		return 0
	}
}

// EstimateHours combines the four factors. Returns 0 for effectively-mastered
// concepts, otherwise at least MinConceptHours.
func EstimateHours(difficulty int, conceptGradeRank int, studentGradeRank int, velocity *float64, masteryProbability float64) float64 {
	discount := MasteryDiscount(masteryProbability)
	if discount <= 0 {
		return 0
	}
	hours := BaseHours(difficulty) * GradeFactor(studentGradeRank, conceptGradeRank) * VelocityFactor(velocity) * discount
	hours = round2(hours)
	if hours < MinConceptHours {
		return MinConceptHours
	}
	return hours
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
