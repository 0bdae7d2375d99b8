package estimator

import (
	"time"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

const (
	// VelocityWindow is how far back completed sessions count toward the
	// velocity sample.
	VelocityWindow = 28 * 24 * time.Hour

	// MinVelocitySessions is the smallest sample that produces a velocity;
	// below it the learner is treated as baseline.
	MinVelocitySessions = 3

	// DefaultCorrectPerConcept converts correct answers into concept-sized
	// units. A rough proxy rather than a principled unit; deployments tune it
	// through configuration.
	DefaultCorrectPerConcept = 10.0

	velocityFloor = 0.3
	velocityCeil  = 3.0
)

// ComputeVelocity derives a learning-velocity multiplier from recent
// completed sessions. Returns nil when the sample is too small or carries no
// usable signal, which callers treat as baseline 1.0.
func ComputeVelocity(sessions []*domain.LearningSession, correctPerConcept float64) *float64 {
	if len(sessions) < MinVelocitySessions {
		return nil
	}
	if correctPerConcept <= 0 {
		correctPerConcept = DefaultCorrectPerConcept
	}

	var totalSeconds, totalAnswered, totalCorrect int64
	for _, s := range sessions {
		if s == nil {
			continue
		}
		totalSeconds += int64(s.DurationSeconds)
		totalAnswered += int64(s.QuestionsAnswered)
		totalCorrect += int64(s.QuestionsCorrect)
	}
	totalHours := float64(totalSeconds) / 3600.0
	if totalHours <= 0 {
		return nil
	}

	accuracy := 0.0
	if totalAnswered > 0 {
		accuracy = float64(totalCorrect) / float64(totalAnswered)
	}

	v := (float64(totalCorrect) / correctPerConcept) / totalHours * (0.5 + 0.5*accuracy)
	if v < velocityFloor {
		v = velocityFloor
	}
	if v > velocityCeil {
		v = velocityCeil
	}
	return &v
}

// CalculateTrend classifies the change between two velocity samples.
// Movement within 20 percent either way reads as steady.
func CalculateTrend(current, previous float64) string {
	if previous <= 0 {
		if current <= 0 {
			return "steady"
		}
		return "accelerating"
	}
	change := (current - previous) / previous
	switch {
	case change > 0.2:
		return "accelerating"
	case change < -0.2:
		return "slowing"
	default:
		return "steady"
	}
}
