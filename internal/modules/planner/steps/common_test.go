package steps

import (
	"testing"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

func TestJoinWithLimit(t *testing.T) {
	parts := []string{"a", "b", "c", "d", "e"}
	if got := joinWithLimit(parts, ", ", 3); got != "a, b, c, and 2 more" {
		t.Fatalf("got %q", got)
	}
	if got := joinWithLimit(parts, ", ", 0); got != "a, b, c, d, e" {
		t.Fatalf("no limit: got %q", got)
	}
	if got := joinWithLimit(parts[:2], ", ", 3); got != "a, b" {
		t.Fatalf("under limit: got %q", got)
	}
}

func TestTitlesForFallsBackToCode(t *testing.T) {
	byCode := conceptsByCode([]*domain.Concept{
		{Code: "alg.one", Title: "Variables"},
		{Code: "alg.blank", Title: "   "},
		nil,
	})
	got := titlesFor([]string{"alg.one", "alg.blank", "alg.missing"}, byCode)
	want := []string{"Variables", "alg.blank", "alg.missing"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v got %v", want, got)
		}
	}
}

func TestHoursFromSeconds(t *testing.T) {
	if got := hoursFromSeconds(5400); got != 1.5 {
		t.Fatalf("want 1.5 got %v", got)
	}
	if got := hoursFromSeconds(-10); got != 0 {
		t.Fatalf("negative seconds clamp to 0, got %v", got)
	}
}

func TestFmtHours(t *testing.T) {
	if got := fmtHours(2.0); got != "2" {
		t.Fatalf("trailing zeros must drop: %q", got)
	}
	if got := fmtHours(1.256); got != "1.26" {
		t.Fatalf("rounds to two places: %q", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TQ_TEST_ENV_INT", "6")
	if got := envInt("TQ_TEST_ENV_INT", 3); got != 6 {
		t.Fatalf("want 6 got %d", got)
	}
	t.Setenv("TQ_TEST_ENV_INT", "not a number")
	if got := envInt("TQ_TEST_ENV_INT", 3); got != 3 {
		t.Fatalf("bad value must fall back, got %d", got)
	}
	t.Setenv("TQ_TEST_ENV_INT", "-2")
	if got := envInt("TQ_TEST_ENV_INT", 3); got != 3 {
		t.Fatalf("non-positive must fall back, got %d", got)
	}
}

func TestMasteryByCode(t *testing.T) {
	rows := []*domain.ConceptMastery{
		{ConceptCode: "alg.one", Probability: 0.75},
		nil,
		{ConceptCode: "", Probability: 0.5},
	}
	got := masteryByCode(rows)
	if len(got) != 1 || got["alg.one"] != 0.75 {
		t.Fatalf("got %v", got)
	}
}
