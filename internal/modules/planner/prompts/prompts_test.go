package prompts

import (
	"strings"
	"testing"
)

func TestBuildPlanNarrative(t *testing.T) {
	in := Input{
		StudentName:   "Ada",
		GradeLevel:    "GRADE_4",
		GoalName:      "Master Grade 4 Math",
		GoalCategory:  "GRADE_PROFICIENCY",
		Domain:        "math",
		ConceptTitles: "Counting, Addition, Multiplication",
		ConceptCount:  "3",
		TotalHours:    "6.5",
		WeeklyHours:   "2",
		WeekCount:     "4",
		ProjectedDate: "2026-09-22",
	}
	built, err := Build(PromptPlanNarrative, in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(built.User, "Master Grade 4 Math") {
		t.Fatalf("user prompt missing goal name: %q", built.User)
	}
	if !strings.Contains(built.User, "Counting, Addition, Multiplication") {
		t.Fatalf("user prompt missing concept titles: %q", built.User)
	}
	if strings.Contains(built.User, "target date") {
		t.Fatalf("target date section should render empty when unset: %q", built.User)
	}
	if built.SchemaName != "plan_narrative" || built.Schema == nil {
		t.Fatalf("schema not attached: %s %v", built.SchemaName, built.Schema)
	}

	in.TargetDate = "2026-12-01"
	built, err = Build(PromptPlanNarrative, in)
	if err != nil {
		t.Fatalf("build with target date: %v", err)
	}
	if !strings.Contains(built.User, "target date: 2026-12-01") {
		t.Fatalf("target date not rendered: %q", built.User)
	}
}

func TestBuildValidation(t *testing.T) {
	if _, err := Build(PromptPlanNarrative, Input{GoalName: "g"}); err == nil {
		t.Fatal("expected missing ConceptTitles to fail validation")
	}
	if _, err := Build(PromptMilestoneQuestion, Input{}); err == nil {
		t.Fatal("expected missing ConceptTitle to fail validation")
	}
	if _, err := Build(PromptAdaptationMessage, Input{GoalName: "g"}); err == nil {
		t.Fatal("expected missing drift fields to fail validation")
	}
	if _, err := Build(PromptName("nope"), Input{}); err == nil {
		t.Fatal("expected unknown prompt to fail")
	}
}

func TestBuildAdaptationMessageDriftBranches(t *testing.T) {
	behind, err := Build(PromptAdaptationMessage, Input{GoalName: "g", StudentName: "Ada", DaysBehind: "16"})
	if err != nil {
		t.Fatalf("build behind: %v", err)
	}
	if !strings.Contains(behind.User, "Days behind schedule: 16") || strings.Contains(behind.User, "ahead of schedule") {
		t.Fatalf("behind prompt wrong: %q", behind.User)
	}

	ahead, err := Build(PromptAdaptationMessage, Input{GoalName: "g", StudentName: "Ada", DaysAhead: "30"})
	if err != nil {
		t.Fatalf("build ahead: %v", err)
	}
	if !strings.Contains(ahead.User, "Days ahead of schedule: 30") || strings.Contains(ahead.User, "behind schedule:") {
		t.Fatalf("ahead prompt wrong: %q", ahead.User)
	}
}

func TestNamesListsAllPrompts(t *testing.T) {
	want := map[PromptName]bool{
		PromptPlanNarrative:     true,
		PromptMilestoneQuestion: true,
		PromptAdaptationMessage: true,
	}
	for _, n := range Names() {
		delete(want, n)
	}
	if len(want) != 0 {
		t.Fatalf("prompts not registered: %v", want)
	}
}

func TestMilestoneQuestionSchemaShape(t *testing.T) {
	schema := MilestoneQuestionSchema()
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema missing properties: %v", schema)
	}
	options, ok := props["options"].(map[string]any)
	if !ok {
		t.Fatalf("schema missing options: %v", props)
	}
	if options["minItems"] != 4 || options["maxItems"] != 4 {
		t.Fatalf("options must pin exactly four entries: %v", options)
	}
	if schema["additionalProperties"] != false {
		t.Fatalf("schema must forbid extra properties: %v", schema)
	}
}
