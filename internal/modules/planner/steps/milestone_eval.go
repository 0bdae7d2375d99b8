package steps

import (
	"math"
	"sort"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

// PassThreshold is the overall score (0-100) a milestone attempt must reach
// to pass. Per-concept review flags use the looser conceptPassRatio so a
// weak concept is surfaced even on a passing attempt.
const PassThreshold = 75

const conceptPassRatio = 0.5

type MilestoneEvaluation struct {
	Score          int                   `json:"score"`
	Passed         bool                  `json:"passed"`
	Correct        int                   `json:"correct"`
	Total          int                   `json:"total"`
	ConceptScores  []domain.ConceptScore `json:"concept_scores"`
	FailedConcepts []string              `json:"failed_concepts"`
	Message        string                `json:"message"`
}

// EvaluateAnswers scores a submitted attempt. Unanswered questions count as
// incorrect. An empty question list scores 0 and fails without concept
// results.
func EvaluateAnswers(questions []domain.MilestoneQuestion, answers map[string]string) MilestoneEvaluation {
	out := MilestoneEvaluation{Total: len(questions)}
	if len(questions) == 0 {
		out.Message = resultMessage(0, false)
		return out
	}

	type tally struct {
		correct int
		total   int
	}
	perConcept := map[string]*tally{}
	order := make([]string, 0, 4)

	for _, q := range questions {
		t := perConcept[q.ConceptCode]
		if t == nil {
			t = &tally{}
			perConcept[q.ConceptCode] = t
			order = append(order, q.ConceptCode)
		}
		t.total++
		if isCorrectAnswer(q, answers[q.ID]) {
			t.correct++
			out.Correct++
		}
	}

	out.Score = int(math.Round(float64(out.Correct) / float64(out.Total) * 100))
	out.Passed = out.Score >= PassThreshold

	sort.Strings(order)
	for _, code := range order {
		t := perConcept[code]
		passed := float64(t.correct)/float64(t.total) >= conceptPassRatio
		out.ConceptScores = append(out.ConceptScores, domain.ConceptScore{
			ConceptCode: code,
			Correct:     t.correct,
			Total:       t.total,
			Passed:      passed,
		})
		if !passed {
			out.FailedConcepts = append(out.FailedConcepts, code)
		}
	}

	out.Message = resultMessage(out.Score, out.Passed)
	return out
}

func isCorrectAnswer(q domain.MilestoneQuestion, selected string) bool {
	if selected == "" {
		return false
	}
	for _, opt := range q.Options {
		if opt.Label == selected {
			return opt.IsCorrect
		}
	}
	return false
}

// resultMessage picks deterministic encouragement from fixed score bands.
func resultMessage(score int, passed bool) string {
	switch {
	case score == 100:
		return "Perfect score! You have clearly mastered this week's concepts."
	case score >= 88:
		return "Excellent work! You are in great shape on this week's material."
	case passed:
		return "Nice job, you passed this milestone. A little more practice will make these concepts stick."
	case score >= 50:
		return "Close one. You are partway there; review the flagged concepts and they will come together."
	default:
		return "This week's concepts need more time. Revisit them before moving on; that is what the plan is for."
	}
}
