package steps

import (
	"strings"
	"testing"
	"time"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

var ruleNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func ruleSnapshot() PlanSnapshot {
	return PlanSnapshot{
		Plan:         &domain.StudyPlan{},
		Now:          ruleNow,
		Sequence:     []string{"alg.one", "alg.two", "alg.three", "alg.four", "alg.five"},
		Hours:        []float64{2, 2, 2, 1, 3},
		CurrentIndex: 3,
		Difficulty: map[string]int{
			"alg.one": 2, "alg.two": 2, "alg.three": 3, "alg.four": 3, "alg.five": 5,
		},
		Mastery:       map[string]float64{},
		ActualSeconds: map[string]int64{},
	}
}

func sessionAt(code string, at time.Time) *domain.LearningSession {
	return &domain.LearningSession{ConceptCode: code, OccurredAt: at}
}

func TestRuleSlowConceptFlagsSimilarRemaining(t *testing.T) {
	snap := ruleSnapshot()
	snap.JustCompleted = "alg.three"
	snap.ActualSeconds["alg.three"] = 5 * 3600 // 5h against a 2h estimate

	action := ruleSlowConcept(snap)
	if !action.Applied {
		t.Fatalf("5h on a 2h estimate must apply: %+v", action)
	}
	// Remaining sequence is alg.four (difficulty 3, in band) and alg.five
	// (difficulty 5, out of band).
	if len(action.Concepts) != 1 || action.Concepts[0] != "alg.four" {
		t.Fatalf("band filter wrong: %v", action.Concepts)
	}
}

func TestRuleSlowConceptBoundaryAndMissingData(t *testing.T) {
	snap := ruleSnapshot()
	snap.JustCompleted = "alg.three"
	snap.ActualSeconds["alg.three"] = 4 * 3600 // exactly 2x stays silent
	if ruleSlowConcept(snap).Applied {
		t.Fatal("exactly double the estimate must not apply")
	}

	snap.JustCompleted = ""
	if ruleSlowConcept(snap).Applied {
		t.Fatal("no triggering concept must not apply")
	}

	snap.JustCompleted = "unknown.code"
	snap.ActualSeconds["unknown.code"] = 100 * 3600
	if ruleSlowConcept(snap).Applied {
		t.Fatal("concept without an estimate must not apply")
	}
}

func TestRuleFastLearner(t *testing.T) {
	snap := ruleSnapshot()
	for _, code := range []string{"alg.one", "alg.two", "alg.three"} {
		snap.ActualSeconds[code] = int64(1.5 * 3600) // 1.5h < 2h * 0.85
	}
	action := ruleFastLearner(snap)
	if !action.Applied {
		t.Fatalf("three fast completions must apply: %+v", action)
	}

	// One concept at exactly 85% of its estimate breaks the streak.
	snap.ActualSeconds["alg.two"] = int64(1.7 * 3600)
	if ruleFastLearner(snap).Applied {
		t.Fatal("85% exactly must not count as fast")
	}

	snap.ActualSeconds["alg.two"] = int64(1.5 * 3600)
	snap.ActualSeconds["alg.three"] = 0
	if ruleFastLearner(snap).Applied {
		t.Fatal("a concept without recorded practice must not apply")
	}
}

func TestRuleFastLearnerNeedsThreeCompletions(t *testing.T) {
	snap := ruleSnapshot()
	snap.CurrentIndex = 2
	snap.ActualSeconds["alg.one"] = 3600
	snap.ActualSeconds["alg.two"] = 3600
	if ruleFastLearner(snap).Applied {
		t.Fatal("fewer than three completed concepts must not apply")
	}
}

func TestRuleInactivity(t *testing.T) {
	snap := ruleSnapshot()
	snap.Mastery = map[string]float64{"alg.one": 0.5, "alg.two": 0.95, "alg.three": 0.2, "alg.four": 0.1}
	snap.RecentSessions = []*domain.LearningSession{
		sessionAt("alg.five", ruleNow),
		sessionAt("alg.one", ruleNow.Add(-4*24*time.Hour)),
		sessionAt("alg.two", ruleNow.Add(-5*24*time.Hour)),
		sessionAt("alg.three", ruleNow.Add(-6*24*time.Hour)),
		sessionAt("alg.four", ruleNow.Add(-7*24*time.Hour)),
	}

	action := ruleInactivity(snap)
	if !action.Applied {
		t.Fatalf("4 day gap must apply: %+v", action)
	}
	// alg.two is above the mastery bar; alg.four is cut by the review cap.
	want := []string{"alg.one", "alg.three"}
	if len(action.Concepts) != len(want) {
		t.Fatalf("review picks wrong: %v", action.Concepts)
	}
	for i := range want {
		if action.Concepts[i] != want[i] {
			t.Fatalf("review picks wrong: %v", action.Concepts)
		}
	}
}

func TestRuleInactivityQuiet(t *testing.T) {
	snap := ruleSnapshot()
	snap.RecentSessions = []*domain.LearningSession{
		sessionAt("alg.two", ruleNow),
		sessionAt("alg.one", ruleNow.Add(-2*24*time.Hour)),
	}
	if ruleInactivity(snap).Applied {
		t.Fatal("2 day gap must not apply")
	}

	snap.RecentSessions = snap.RecentSessions[:1]
	if ruleInactivity(snap).Applied {
		t.Fatal("a single session must not apply")
	}
}

func failedResult(scores []domain.ConceptScore, tested []string) *domain.MilestoneResult {
	r := &domain.MilestoneResult{Passed: false}
	if len(scores) > 0 {
		r.ConceptScores = mustJSON(scores)
	}
	if len(tested) > 0 {
		r.TestedConcepts = mustJSON(tested)
	}
	return r
}

func TestRuleFailedReviews(t *testing.T) {
	snap := ruleSnapshot()
	snap.Mastery = map[string]float64{"alg.one": 0.3, "alg.three": 0.9, "alg.four": 0.2}
	snap.FailedResults = []*domain.MilestoneResult{
		failedResult([]domain.ConceptScore{
			{ConceptCode: "alg.one", Passed: false},
			{ConceptCode: "alg.two", Passed: true},
		}, nil),
		failedResult(nil, []string{"alg.three"}), // legacy row, remediated since
		failedResult(nil, []string{"alg.four"}),
	}

	action := ruleFailedReviews(snap)
	if !action.Applied {
		t.Fatalf("unremediated failures must apply: %+v", action)
	}
	want := []string{"alg.one", "alg.four"}
	if len(action.Concepts) != len(want) {
		t.Fatalf("remediation picks wrong: %v", action.Concepts)
	}
	for i := range want {
		if action.Concepts[i] != want[i] {
			t.Fatalf("remediation picks wrong: %v", action.Concepts)
		}
	}
}

func TestRuleFailedReviewsAllRemediated(t *testing.T) {
	snap := ruleSnapshot()
	snap.Mastery = map[string]float64{"alg.one": 0.9}
	snap.FailedResults = []*domain.MilestoneResult{
		failedResult([]domain.ConceptScore{{ConceptCode: "alg.one", Passed: false}}, nil),
	}
	if ruleFailedReviews(snap).Applied {
		t.Fatal("remediated concepts must not apply")
	}
	if ruleFailedReviews(ruleSnapshot()).Applied {
		t.Fatal("no failed results must not apply")
	}
}

func driftSnapshot(targetOffsetDays, projectedOffsetDays int) PlanSnapshot {
	snap := ruleSnapshot()
	target := ruleNow.AddDate(0, 0, targetOffsetDays)
	snap.Plan = &domain.StudyPlan{TargetDate: &target}
	snap.Projected = ruleNow.AddDate(0, 0, projectedOffsetDays)
	return snap
}

func TestScheduleDriftRules(t *testing.T) {
	behind := driftSnapshot(10, 25) // 15 days past target
	if !ruleBehindSchedule(behind).Applied {
		t.Fatal("15 days behind must apply")
	}
	if ruleAheadOfSchedule(behind).Applied {
		t.Fatal("a behind plan is not ahead")
	}

	boundary := driftSnapshot(10, 24) // exactly 14 days
	if ruleBehindSchedule(boundary).Applied {
		t.Fatal("exactly 14 days behind must not apply")
	}

	ahead := driftSnapshot(40, 11) // 29 days early
	if !ruleAheadOfSchedule(ahead).Applied {
		t.Fatal("29 days ahead must apply")
	}
	if ruleAheadOfSchedule(driftSnapshot(40, 12)).Applied {
		t.Fatal("exactly 28 days ahead must not apply")
	}

	noTarget := ruleSnapshot()
	noTarget.Projected = ruleNow.AddDate(0, 0, 100)
	if ruleBehindSchedule(noTarget).Applied || ruleAheadOfSchedule(noTarget).Applied {
		t.Fatal("plans without a target date have no schedule drift")
	}
	if got := scheduleDriftDays(noTarget); got != 0 {
		t.Fatalf("driftless plan reported %d days", got)
	}
}

func TestLiveProjection(t *testing.T) {
	plan := &domain.StudyPlan{TotalEstimatedHours: 10, HoursCompleted: 4, WeeklyHours: 2}
	got := liveProjection(plan, ruleNow)
	if want := ruleNow.AddDate(0, 0, 21); !got.Equal(want) {
		t.Fatalf("6h at 2h/week: want %s got %s", want, got)
	}

	plan.HoursCompleted = 12
	if got := liveProjection(plan, ruleNow); !got.Equal(ruleNow) {
		t.Fatalf("overshot plan projects now, got %s", got)
	}

	plan.WeeklyHours = 0
	if got := liveProjection(plan, ruleNow); !got.Equal(ruleNow) {
		t.Fatalf("zero weekly hours projects now, got %s", got)
	}

	partial := &domain.StudyPlan{TotalEstimatedHours: 5, WeeklyHours: 2}
	if got := liveProjection(partial, ruleNow); !got.Equal(ruleNow.AddDate(0, 0, 21)) {
		t.Fatalf("partial week must round up, got %s", got)
	}
}

func TestEvaluateRulesOrderIsStable(t *testing.T) {
	actions := EvaluateRules(ruleSnapshot())
	want := []string{
		RuleSlowConcept, RuleFastLearner, RuleInactivity,
		RuleFailedReviews, RuleBehindSchedule, RuleAheadOfSchedule,
	}
	if len(actions) != len(want) {
		t.Fatalf("expected %d actions, got %d", len(want), len(actions))
	}
	for i, rule := range want {
		if actions[i].Rule != rule {
			t.Fatalf("position %d: want %s got %s", i, rule, actions[i].Rule)
		}
	}
}

func TestRecentlyCompletedCodes(t *testing.T) {
	snap := ruleSnapshot()
	snap.CurrentIndex = 2
	snap.JustCompleted = "alg.two"
	got := recentlyCompletedCodes(snap)
	want := []string{"alg.two", "alg.one"}
	if len(got) != len(want) {
		t.Fatalf("want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v got %v", want, got)
		}
	}
}

func TestFallbackDriftMessage(t *testing.T) {
	behind := fallbackDriftMessage("Algebra Basics", 16, 0)
	if !strings.Contains(behind, "16 days behind") || !strings.Contains(behind, "Algebra Basics") {
		t.Fatalf("behind message wrong: %q", behind)
	}
	ahead := fallbackDriftMessage("Algebra Basics", 0, 30)
	if !strings.Contains(ahead, "30 days ahead") || !strings.Contains(ahead, "Algebra Basics") {
		t.Fatalf("ahead message wrong: %q", ahead)
	}
}
