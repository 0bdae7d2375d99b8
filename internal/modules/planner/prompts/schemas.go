package prompts

// Shared leaf schema helpers. Every object schema lists all of its
// properties as required and forbids extras so generated payloads
// decode without surprises.

func StringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func IntSchema() map[string]any {
	return map[string]any{"type": "integer"}
}

func NumberSchema() map[string]any {
	return map[string]any{"type": "number"}
}

func BoolSchema() map[string]any {
	return map[string]any{"type": "boolean"}
}

func ArraySchema(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func ObjectSchema(properties map[string]any, required []string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// PlanNarrativeSchema describes the short motivational overview attached to a
// freshly built study plan.
func PlanNarrativeSchema() map[string]any {
	return ObjectSchema(map[string]any{
		"narrative": StringSchema(),
	}, []string{"narrative"})
}

// MilestoneQuestionSchema describes one generated check question. Options
// carry exactly four entries and exactly one of them is correct; the
// assessor re-validates both counts before accepting the payload.
func MilestoneQuestionSchema() map[string]any {
	option := ObjectSchema(map[string]any{
		"text":       StringSchema(),
		"is_correct": BoolSchema(),
	}, []string{"text", "is_correct"})

	options := ArraySchema(option)
	options["minItems"] = 4
	options["maxItems"] = 4

	return ObjectSchema(map[string]any{
		"question":    StringSchema(),
		"options":     options,
		"explanation": StringSchema(),
	}, []string{"question", "options", "explanation"})
}

// AdaptationMessageSchema describes the single nudge message surfaced after
// a schedule drift rule fires.
func AdaptationMessageSchema() map[string]any {
	return ObjectSchema(map[string]any{
		"message": StringSchema(),
	}, []string{"message"})
}
