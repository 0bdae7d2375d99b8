package prompts

import "fmt"

type Validator func(Input) error

// RequireNonEmpty fails validation when the named field renders empty.
func RequireNonEmpty(field string, get func(Input) string) Validator {
	return func(in Input) error {
		if get(in) == "" {
			return fmt.Errorf("missing required field: %s", field)
		}
		return nil
	}
}

// RequireAnyNonEmpty passes when at least one of the getters yields a value.
func RequireAnyNonEmpty(msg string, getters ...func(Input) string) Validator {
	return func(in Input) error {
		for _, g := range getters {
			if g(in) != "" {
				return nil
			}
		}
		return fmt.Errorf("%s", msg)
	}
}
