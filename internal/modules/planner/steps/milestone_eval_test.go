package steps

import (
	"strings"
	"testing"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

func evalQuestion(id, conceptCode, correctLabel string) domain.MilestoneQuestion {
	options := make([]domain.QuestionOption, 0, 4)
	for _, label := range optionLabels {
		options = append(options, domain.QuestionOption{
			Label:     label,
			Text:      "option " + label,
			IsCorrect: label == correctLabel,
		})
	}
	return domain.MilestoneQuestion{ID: id, ConceptCode: conceptCode, Text: "q", Options: options}
}

func TestEvaluateAnswersBoundaryPass(t *testing.T) {
	questions := make([]domain.MilestoneQuestion, 0, 8)
	answers := map[string]string{}
	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		concept := "alg.one"
		if i >= 4 {
			concept = "alg.two"
		}
		questions = append(questions, evalQuestion(id, concept, "B"))
		if i < 6 {
			answers[id] = "B"
		} else {
			answers[id] = "C"
		}
	}

	eval := EvaluateAnswers(questions, answers)
	if eval.Score != 75 || !eval.Passed {
		t.Fatalf("6/8 must score 75 and pass, got score=%d passed=%v", eval.Score, eval.Passed)
	}
	if eval.Correct != 6 || eval.Total != 8 {
		t.Fatalf("tally wrong: %d/%d", eval.Correct, eval.Total)
	}
}

func TestEvaluateAnswersPerfectAndZero(t *testing.T) {
	questions := []domain.MilestoneQuestion{
		evalQuestion("q1", "alg.one", "A"),
		evalQuestion("q2", "alg.one", "D"),
	}

	perfect := EvaluateAnswers(questions, map[string]string{"q1": "A", "q2": "D"})
	if perfect.Score != 100 || !perfect.Passed {
		t.Fatalf("all correct must score 100, got %d", perfect.Score)
	}
	if !strings.Contains(perfect.Message, "Perfect") {
		t.Fatalf("expected the perfect-score message, got %q", perfect.Message)
	}

	zero := EvaluateAnswers(questions, map[string]string{"q1": "B", "q2": "A"})
	if zero.Score != 0 || zero.Passed {
		t.Fatalf("none correct must score 0, got %d passed=%v", zero.Score, zero.Passed)
	}
}

func TestEvaluateAnswersUnansweredCountsIncorrect(t *testing.T) {
	questions := []domain.MilestoneQuestion{
		evalQuestion("q1", "alg.one", "A"),
		evalQuestion("q2", "alg.one", "A"),
	}
	eval := EvaluateAnswers(questions, map[string]string{"q1": "A"})
	if eval.Correct != 1 || eval.Score != 50 || eval.Passed {
		t.Fatalf("unanswered must count incorrect: correct=%d score=%d passed=%v", eval.Correct, eval.Score, eval.Passed)
	}
}

func TestEvaluateAnswersEmptyQuestionList(t *testing.T) {
	eval := EvaluateAnswers(nil, map[string]string{"ghost": "A"})
	if eval.Score != 0 || eval.Passed || len(eval.ConceptScores) != 0 {
		t.Fatalf("empty list must score 0 with no concept results: %+v", eval)
	}
	if eval.Message == "" {
		t.Fatal("empty list still gets a message")
	}
}

func TestEvaluateAnswersConceptThresholdIndependent(t *testing.T) {
	// alg.one: 2/2, alg.two: 1/2, alg.three: 0/2. Overall 3/6 = 50, failing,
	// yet alg.two still passes its own looser bar.
	questions := []domain.MilestoneQuestion{
		evalQuestion("q1", "alg.one", "A"),
		evalQuestion("q2", "alg.one", "A"),
		evalQuestion("q3", "alg.two", "A"),
		evalQuestion("q4", "alg.two", "A"),
		evalQuestion("q5", "alg.three", "A"),
		evalQuestion("q6", "alg.three", "A"),
	}
	answers := map[string]string{"q1": "A", "q2": "A", "q3": "A", "q4": "B", "q5": "B", "q6": "B"}

	eval := EvaluateAnswers(questions, answers)
	if eval.Score != 50 || eval.Passed {
		t.Fatalf("expected failing 50, got score=%d passed=%v", eval.Score, eval.Passed)
	}
	byCode := map[string]domain.ConceptScore{}
	for _, cs := range eval.ConceptScores {
		byCode[cs.ConceptCode] = cs
	}
	if !byCode["alg.one"].Passed || !byCode["alg.two"].Passed || byCode["alg.three"].Passed {
		t.Fatalf("concept pass flags wrong: %+v", eval.ConceptScores)
	}
	if len(eval.FailedConcepts) != 1 || eval.FailedConcepts[0] != "alg.three" {
		t.Fatalf("failed concepts wrong: %v", eval.FailedConcepts)
	}
}

func TestResultMessageBands(t *testing.T) {
	cases := []struct {
		score  int
		passed bool
		want   string
	}{
		{100, true, "Perfect"},
		{88, true, "Excellent"},
		{75, true, "passed this milestone"},
		{50, false, "partway there"},
		{25, false, "need more time"},
	}
	for _, tc := range cases {
		got := resultMessage(tc.score, tc.passed)
		if !strings.Contains(got, tc.want) {
			t.Fatalf("score %d: message %q missing %q", tc.score, got, tc.want)
		}
	}
}
