package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner/prompts"
	"github.com/tutoriq/tutoriq-backend/internal/observability"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
	"github.com/tutoriq/tutoriq-backend/internal/platform/textgen"
)

const (
	assessmentQuestionTarget = 8
	assessmentConceptMax     = 4
	baseQuestionsPerConcept  = 2
)

var optionLabels = [4]string{"A", "B", "C", "D"}

// selectAssessmentConcepts picks the week's hardest concepts for testing,
// capped at assessmentConceptMax.
func selectAssessmentConcepts(concepts []*domain.Concept, max int) []*domain.Concept {
	if max <= 0 {
		max = assessmentConceptMax
	}
	picked := make([]*domain.Concept, 0, len(concepts))
	for _, c := range concepts {
		if c != nil && c.Code != "" {
			picked = append(picked, c)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].Difficulty != picked[j].Difficulty {
			return picked[i].Difficulty > picked[j].Difficulty
		}
		return picked[i].Code < picked[j].Code
	})
	if len(picked) > max {
		picked = picked[:max]
	}
	return picked
}

// questionQuota distributes the question target over the picked concepts:
// two per concept first, then one more each in round-robin until the target
// is met. A single-concept week absorbs the whole target.
func questionQuota(conceptCount, target int) []int {
	if conceptCount <= 0 || target <= 0 {
		return nil
	}
	quota := make([]int, conceptCount)
	total := 0
	for i := range quota {
		if total >= target {
			break
		}
		n := baseQuestionsPerConcept
		if total+n > target {
			n = target - total
		}
		quota[i] = n
		total += n
	}
	for total < target {
		for i := range quota {
			if total >= target {
				break
			}
			quota[i]++
			total++
		}
	}
	return quota
}

// generateQuestions produces the attempt's question set. Each generation
// call is independently fault-isolated: a failed or malformed response is
// replaced by a deterministic template question, never an error.
func generateQuestions(ctx context.Context, ai textgen.Client, log *logger.Logger, picked []*domain.Concept, quota []int) []domain.MilestoneQuestion {
	out := make([]domain.MilestoneQuestion, 0, assessmentQuestionTarget)
	for i, c := range picked {
		if i >= len(quota) {
			break
		}
		for n := 0; n < quota[i]; n++ {
			q, ok := generateOneQuestion(ctx, ai, log, c)
			if !ok {
				if m := observability.Current(); m != nil {
					m.IncTextGenFallback("milestone_question")
				}
				q = templateQuestion(c, len(out))
			}
			out = append(out, q)
		}
	}
	return out
}

func generateOneQuestion(ctx context.Context, ai textgen.Client, log *logger.Logger, c *domain.Concept) (domain.MilestoneQuestion, bool) {
	if ai == nil {
		return domain.MilestoneQuestion{}, false
	}
	prompt, err := prompts.Build(prompts.PromptMilestoneQuestion, prompts.Input{
		ConceptTitle:       c.Title,
		ConceptDescription: c.Description,
		ConceptGradeLevel:  c.GradeLevel,
		Difficulty:         fmtInt(c.Difficulty),
	})
	if err != nil {
		log.Warn("milestone question prompt build failed (using template)", "concept_code", c.Code, "error", err)
		return domain.MilestoneQuestion{}, false
	}
	obj, err := ai.GenerateJSON(ctx, prompt.System, prompt.User, prompt.SchemaName, prompt.Schema)
	if err != nil {
		log.Warn("milestone question generation failed (using template)", "concept_code", c.Code, "error", err)
		return domain.MilestoneQuestion{}, false
	}
	q, ok := decodeGeneratedQuestion(obj, c.Code)
	if !ok {
		log.Warn("milestone question payload malformed (using template)", "concept_code", c.Code)
	}
	return q, ok
}

// decodeGeneratedQuestion validates the strict contract: non-empty question
// text, exactly four options, exactly one correct.
func decodeGeneratedQuestion(obj map[string]any, conceptCode string) (domain.MilestoneQuestion, bool) {
	q := domain.MilestoneQuestion{ConceptCode: conceptCode}
	if obj == nil {
		return q, false
	}
	text, _ := obj["question"].(string)
	text = strings.TrimSpace(text)
	if text == "" {
		return q, false
	}
	rawOptions, _ := obj["options"].([]any)
	if len(rawOptions) != len(optionLabels) {
		return q, false
	}

	options := make([]domain.QuestionOption, 0, len(optionLabels))
	correct := 0
	for i, raw := range rawOptions {
		m, _ := raw.(map[string]any)
		optText, _ := m["text"].(string)
		optText = strings.TrimSpace(optText)
		if optText == "" {
			return q, false
		}
		isCorrect, _ := m["is_correct"].(bool)
		if isCorrect {
			correct++
		}
		options = append(options, domain.QuestionOption{
			Label:     optionLabels[i],
			Text:      optText,
			IsCorrect: isCorrect,
		})
	}
	if correct != 1 {
		return q, false
	}

	explanation, _ := obj["explanation"].(string)
	q.ID = uuid.New().String()
	q.Text = text
	q.Options = options
	q.Explanation = strings.TrimSpace(explanation)
	return q, true
}

// templateQuestion is the deterministic substitute used whenever generation
// degrades. The correct option rotates with the question's position so
// template attempts are not trivially all-A.
func templateQuestion(c *domain.Concept, ordinal int) domain.MilestoneQuestion {
	correct := fmt.Sprintf("%s is a %s concept practiced at the %s level.", c.Title, c.Domain, c.GradeLevel)
	if strings.TrimSpace(c.Description) != "" {
		correct = c.Description
	}
	distractors := [3]string{
		fmt.Sprintf("%s has no connection to %s.", c.Title, c.Domain),
		fmt.Sprintf("%s is only used outside of %s.", c.Title, c.Domain),
		fmt.Sprintf("%s cannot be practiced at the %s level.", c.Title, c.GradeLevel),
	}

	correctAt := ordinal % len(optionLabels)
	options := make([]domain.QuestionOption, 0, len(optionLabels))
	d := 0
	for i, label := range optionLabels {
		if i == correctAt {
			options = append(options, domain.QuestionOption{Label: label, Text: correct, IsCorrect: true})
			continue
		}
		options = append(options, domain.QuestionOption{Label: label, Text: distractors[d]})
		d++
	}

	return domain.MilestoneQuestion{
		ID:          uuid.New().String(),
		ConceptCode: c.Code,
		Text:        fmt.Sprintf("Which statement about %s is accurate?", c.Title),
		Options:     options,
		Explanation: fmt.Sprintf("Review %s before answering; the correct statement describes what the concept covers.", c.Title),
	}
}
