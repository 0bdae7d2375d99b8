package steps

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

func TestDecodeCodes(t *testing.T) {
	raw := datatypes.JSON([]byte(`[" alg.one", "alg.two", "alg.one", "", "alg.three "]`))
	got := decodeCodes(raw)
	want := []string{"alg.one", "alg.two", "alg.three"}
	if len(got) != len(want) {
		t.Fatalf("want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v got %v", want, got)
		}
	}

	if got := decodeCodes(nil); len(got) != 0 {
		t.Fatalf("nil payload must decode empty, got %v", got)
	}
	if got := decodeCodes(datatypes.JSON([]byte(`{"not":"a list"}`))); len(got) != 0 {
		t.Fatalf("non-list payload must decode empty, got %v", got)
	}
}

func TestObservedWeeklyHours(t *testing.T) {
	sessions := []*domain.LearningSession{
		{DurationSeconds: 4 * 3600},
		nil,
		{DurationSeconds: 4 * 3600},
	}
	// 8 hours across the 4 week velocity window.
	if got := observedWeeklyHours(sessions); got != 2 {
		t.Fatalf("want 2 hours/week, got %v", got)
	}
	if got := observedWeeklyHours(nil); got != 0 {
		t.Fatalf("no sessions means 0, got %v", got)
	}
}

func TestFallbackNarrative(t *testing.T) {
	projected := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	in := narrativeInput{
		Goal:          &domain.LearningGoal{Name: "Algebra Basics"},
		ConceptTitles: []string{"Variables", "Equations", "Graphing"},
		TotalHours:    9.5,
		WeeklyHours:   2,
		WeekCount:     5,
		Projected:     projected,
	}
	got := fallbackNarrative(in)
	for _, want := range []string{"Algebra Basics", "3 concepts", "5 weeks", "9.5 hours", "2 hours per week", "2026-06-15"} {
		if !strings.Contains(got, want) {
			t.Fatalf("narrative %q missing %q", got, want)
		}
	}

	in.WeekCount = 0
	if got := fallbackNarrative(in); !strings.Contains(got, "1 weeks") {
		t.Fatalf("week count must floor at 1: %q", got)
	}
}

func TestBuildNarrativeWithoutClientUsesTemplate(t *testing.T) {
	in := narrativeInput{
		Goal:          &domain.LearningGoal{Name: "Algebra Basics"},
		ConceptTitles: []string{"Variables"},
		TotalHours:    3,
		WeeklyHours:   1,
		WeekCount:     3,
		Projected:     time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	text, source := buildNarrative(context.Background(), nil, nil, in)
	if source != "template" {
		t.Fatalf("nil client must report template source, got %q", source)
	}
	if !strings.Contains(text, "Algebra Basics") {
		t.Fatalf("template narrative wrong: %q", text)
	}
}
