package estimator

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestBaseHoursMonotonicAndAnchored(t *testing.T) {
	if got := BaseHours(1); got != 0.4 {
		t.Fatalf("BaseHours(1) = %v, want 0.4", got)
	}
	if got := BaseHours(5); got != 1.0 {
		t.Fatalf("BaseHours(5) = %v, want 1.0", got)
	}
	if got := BaseHours(10); got != 3.0 {
		t.Fatalf("BaseHours(10) = %v, want 3.0", got)
	}
	for d := 2; d <= 10; d++ {
		if BaseHours(d) < BaseHours(d-1) {
			t.Fatalf("BaseHours not monotonic at %d: %v < %v", d, BaseHours(d), BaseHours(d-1))
		}
	}
	// Out-of-range difficulties clamp instead of panicking.
	if BaseHours(0) != 0.4 || BaseHours(-3) != 0.4 {
		t.Fatalf("low clamp failed")
	}
	if BaseHours(11) != 3.0 {
		t.Fatalf("high clamp failed")
	}
}

func TestGradeFactorSteps(t *testing.T) {
	cases := []struct {
		student, concept int
		want             float64
	}{
		{6, 3, 0.6},
		{6, 4, 0.6},
		{6, 5, 0.8},
		{6, 6, 1.0},
		{6, 7, 1.2},
		{6, 8, 1.5},
		{6, 10, 1.5},
	}
	for _, c := range cases {
		if got := GradeFactor(c.student, c.concept); got != c.want {
			t.Fatalf("GradeFactor(%d,%d) = %v, want %v", c.student, c.concept, got, c.want)
		}
	}
}

func TestVelocityFactor(t *testing.T) {
	if got := VelocityFactor(nil); got != 1.0 {
		t.Fatalf("nil velocity: %v", got)
	}
	if got := VelocityFactor(ptr(0)); got != 1.0 {
		t.Fatalf("zero velocity: %v", got)
	}
	if got := VelocityFactor(ptr(-2)); got != 1.0 {
		t.Fatalf("negative velocity: %v", got)
	}
	if got := VelocityFactor(ptr(1.5)); math.Abs(got-0.6667) > 0.001 {
		t.Fatalf("VelocityFactor(1.5) = %v, want ~0.667", got)
	}
	if got := VelocityFactor(ptr(10)); got != 0.5 {
		t.Fatalf("fast learner clamp: %v", got)
	}
	if got := VelocityFactor(ptr(0.1)); got != 2.0 {
		t.Fatalf("slow learner clamp: %v", got)
	}
}

func TestMasteryDiscountSteps(t *testing.T) {
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1.0}, {0.3, 1.0}, {0.31, 0.75}, {0.5, 0.75},
		{0.51, 0.5}, {0.7, 0.5}, {0.71, 0.3}, {0.85, 0.3},
		{0.851, 0}, {0.9, 0}, {1.0, 0},
	}
	for _, c := range cases {
		if got := MasteryDiscount(c.p); got != c.want {
			t.Fatalf("MasteryDiscount(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestEstimateHoursNeutralCase(t *testing.T) {
	// Difficulty 5, on grade, no velocity, no mastery: the bare table value.
	if got := EstimateHours(5, 4, 4, nil, 0); got != 1.0 {
		t.Fatalf("neutral estimate = %v, want 1.0", got)
	}
}

func TestEstimateHoursMasteredIsZero(t *testing.T) {
	if got := EstimateHours(8, 5, 5, nil, 0.9); got != 0 {
		t.Fatalf("mastered estimate = %v, want 0", got)
	}
}

func TestEstimateHoursFloor(t *testing.T) {
	// Easiest concept, student far above level, fast velocity, high partial
	// mastery: raw product is tiny but the floor holds.
	got := EstimateHours(1, 1, 6, ptr(2.0), 0.85)
	if got != MinConceptHours {
		t.Fatalf("floored estimate = %v, want %v", got, MinConceptHours)
	}
}

func TestEstimateHoursMonotonicInVelocity(t *testing.T) {
	prev := math.Inf(1)
	for _, v := range []float64{0.3, 0.5, 1.0, 1.5, 2.0, 3.0} {
		got := EstimateHours(7, 5, 5, ptr(v), 0)
		if got > prev {
			t.Fatalf("estimate increased with velocity %v: %v > %v", v, got, prev)
		}
		prev = got
	}
}

func TestEstimateHoursMonotonicInMastery(t *testing.T) {
	prev := math.Inf(1)
	for _, p := range []float64{0, 0.3, 0.5, 0.7, 0.85, 0.9} {
		got := EstimateHours(7, 5, 5, nil, p)
		if got > prev {
			t.Fatalf("estimate increased with mastery %v: %v > %v", p, got, prev)
		}
		prev = got
	}
}

func TestEstimateHoursRoundsToCents(t *testing.T) {
	got := EstimateHours(7, 6, 5, ptr(1.5), 0.4)
	// 1.6 * 1.2 * (1/1.5) * 0.75 = 0.96
	if math.Abs(got-0.96) > 1e-9 {
		t.Fatalf("estimate = %v, want 0.96", got)
	}
}
