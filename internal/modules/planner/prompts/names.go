package prompts

type PromptName string

const (
	// Plan building
	PromptPlanNarrative PromptName = "plan_narrative"

	// Milestone assessment
	PromptMilestoneQuestion PromptName = "milestone_question"

	// Adaptation messaging
	PromptAdaptationMessage PromptName = "adaptation_message"
)
