package prompts

import (
	"bytes"
	"fmt"
	"text/template"
)

// Spec pairs a prompt's templates with the JSON schema its output must satisfy.
type Spec struct {
	Name       PromptName
	Version    int
	SchemaName string
	Schema     func() map[string]any
	System     string
	User       string
	Validators []Validator
}

// Built is a fully rendered prompt ready to hand to a text generation client.
type Built struct {
	System     string
	User       string
	SchemaName string
	Schema     map[string]any
}

// Build runs the registered validators against the input and renders both
// templates. User templates reference Input fields directly ({{.GoalName}}).
func Build(name PromptName, in Input) (*Built, error) {
	spec, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
	for _, v := range spec.Validators {
		if err := v(in); err != nil {
			return nil, fmt.Errorf("prompt %s: %w", name, err)
		}
	}
	system, err := render(string(name)+"_system", spec.System, in)
	if err != nil {
		return nil, err
	}
	user, err := render(string(name)+"_user", spec.User, in)
	if err != nil {
		return nil, err
	}
	out := &Built{System: system, User: user, SchemaName: spec.SchemaName}
	if spec.Schema != nil {
		out.Schema = spec.Schema()
	}
	return out, nil
}

func render(name, text string, in Input) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
