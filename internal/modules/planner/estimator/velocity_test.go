package estimator

import (
	"math"
	"testing"
	"time"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

func session(seconds, answered, correct int) *domain.LearningSession {
	return &domain.LearningSession{
		DurationSeconds:   seconds,
		QuestionsAnswered: answered,
		QuestionsCorrect:  correct,
		Completed:         true,
		OccurredAt:        time.Now().UTC(),
	}
}

func TestComputeVelocityRequiresMinimumSample(t *testing.T) {
	sessions := []*domain.LearningSession{session(1800, 10, 8), session(1800, 10, 8)}
	if got := ComputeVelocity(sessions, DefaultCorrectPerConcept); got != nil {
		t.Fatalf("expected nil for 2 sessions, got %v", *got)
	}
	if got := ComputeVelocity(nil, DefaultCorrectPerConcept); got != nil {
		t.Fatalf("expected nil for no sessions, got %v", *got)
	}
}

func TestComputeVelocityFormula(t *testing.T) {
	// 3 sessions, 2 hours total, 30 correct of 40 answered.
	// (30/10) / 2 * (0.5 + 0.5*0.75) = 1.5 * 0.875 = 1.3125
	sessions := []*domain.LearningSession{
		session(2400, 15, 12),
		session(2400, 15, 10),
		session(2400, 10, 8),
	}
	got := ComputeVelocity(sessions, DefaultCorrectPerConcept)
	if got == nil {
		t.Fatalf("expected a velocity")
	}
	if math.Abs(*got-1.3125) > 1e-9 {
		t.Fatalf("velocity = %v, want 1.3125", *got)
	}
}

func TestComputeVelocityClamps(t *testing.T) {
	// Blazing: 60 correct in ~6 minutes.
	fast := []*domain.LearningSession{session(120, 20, 20), session(120, 20, 20), session(120, 20, 20)}
	got := ComputeVelocity(fast, DefaultCorrectPerConcept)
	if got == nil || *got != 3.0 {
		t.Fatalf("fast clamp: %v", got)
	}

	// Glacial: 1 correct answer across 10 hours.
	slow := []*domain.LearningSession{session(12000, 5, 1), session(12000, 5, 0), session(12000, 5, 0)}
	got = ComputeVelocity(slow, DefaultCorrectPerConcept)
	if got == nil || *got != 0.3 {
		t.Fatalf("slow clamp: %v", got)
	}
}

func TestComputeVelocityZeroHoursIsNil(t *testing.T) {
	sessions := []*domain.LearningSession{session(0, 10, 8), session(0, 10, 8), session(0, 10, 8)}
	if got := ComputeVelocity(sessions, DefaultCorrectPerConcept); got != nil {
		t.Fatalf("expected nil for zero total hours, got %v", *got)
	}
}

func TestComputeVelocityCustomDivisor(t *testing.T) {
	sessions := []*domain.LearningSession{
		session(3600, 10, 10),
		session(3600, 10, 10),
		session(3600, 10, 10),
	}
	// 30 correct, 3 hours, perfect accuracy: (30/5)/3 * 1.0 = 2.0
	got := ComputeVelocity(sessions, 5)
	if got == nil || math.Abs(*got-2.0) > 1e-9 {
		t.Fatalf("velocity with divisor 5 = %v, want 2.0", got)
	}
}

func TestCalculateTrend(t *testing.T) {
	cases := []struct {
		current, previous float64
		want              string
	}{
		{10, 5, "accelerating"},
		{9, 10, "steady"},
		{0, 0, "steady"},
		{7, 10, "slowing"},
		{12, 10, "steady"},
		{12.1, 10, "accelerating"},
		{5, 0, "accelerating"},
	}
	for _, c := range cases {
		if got := CalculateTrend(c.current, c.previous); got != c.want {
			t.Fatalf("CalculateTrend(%v,%v) = %q, want %q", c.current, c.previous, got, c.want)
		}
	}
}
