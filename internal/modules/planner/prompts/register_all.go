package prompts

// RegisterAll installs every planner prompt spec. Build triggers it lazily,
// so callers never need to invoke it directly.
func RegisterAll() {
	RegisterSpec(Spec{
		Name:       PromptPlanNarrative,
		Version:    1,
		SchemaName: "plan_narrative",
		Schema:     PlanNarrativeSchema,
		System: `You write short, warm study-plan overviews for a tutoring product.
Audience: the student (and their parents). Plain language, no jargon, no emoji.
Mention the goal, roughly how long the plan runs, and one encouraging note about the road ahead.
Keep it to 2-4 sentences. Respond with JSON that matches the provided schema exactly.`,
		User: `Student: {{.StudentName}} (grade level: {{.GradeLevel}})
Goal: {{.GoalName}} ({{.GoalCategory}}, domain: {{.Domain}})
Goal description: {{.GoalDescription}}
Concepts in sequence ({{.ConceptCount}} total): {{.ConceptTitles}}
Estimated effort: {{.TotalHours}} hours at {{.WeeklyHours}} hours/week, about {{.WeekCount}} weeks.
Projected finish: {{.ProjectedDate}}{{if .TargetDate}} (target date: {{.TargetDate}}){{end}}

Write the plan narrative.`,
		Validators: []Validator{
			RequireNonEmpty("GoalName", func(in Input) string { return in.GoalName }),
			RequireNonEmpty("ConceptTitles", func(in Input) string { return in.ConceptTitles }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptMilestoneQuestion,
		Version:    1,
		SchemaName: "milestone_question",
		Schema:     MilestoneQuestionSchema,
		System: `You write one multiple-choice check question for a tutoring product.
Rules:
- Exactly four answer options, exactly one marked correct.
- The question tests understanding of the given concept, pitched at the stated grade level.
- Distractors are plausible mistakes, not jokes or trick wording.
- The explanation says in one or two sentences why the correct answer is right.
Respond with JSON that matches the provided schema exactly.`,
		User: `Concept: {{.ConceptTitle}}
Description: {{.ConceptDescription}}
Grade level: {{.ConceptGradeLevel}}
Difficulty (1-10): {{.Difficulty}}

Write the question.`,
		Validators: []Validator{
			RequireNonEmpty("ConceptTitle", func(in Input) string { return in.ConceptTitle }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptAdaptationMessage,
		Version:    1,
		SchemaName: "adaptation_message",
		Schema:     AdaptationMessageSchema,
		System: `You write one short coaching message for a student working through a study plan.
If the student is behind schedule, be encouraging and practical, never guilt-tripping.
If the student is ahead of schedule, celebrate the pace and suggest keeping momentum.
One or two sentences, second person, no emoji. Respond with JSON that matches the provided schema exactly.`,
		User: `Student: {{.StudentName}}
Goal: {{.GoalName}}
{{if .DaysBehind}}Days behind schedule: {{.DaysBehind}}{{end}}{{if .DaysAhead}}Days ahead of schedule: {{.DaysAhead}}{{end}}
Concepts mastered so far: {{.MasteredCount}}, remaining: {{.RemainingCount}}

Write the message.`,
		Validators: []Validator{
			RequireNonEmpty("GoalName", func(in Input) string { return in.GoalName }),
			RequireAnyNonEmpty("one of DaysBehind or DaysAhead is required",
				func(in Input) string { return in.DaysBehind },
				func(in Input) string { return in.DaysAhead },
			),
		},
	})
}
