package prompts

import "sync"

var (
	registryMu sync.RWMutex
	registry   = map[PromptName]Spec{}
	registered sync.Once
)

// RegisterSpec installs a spec, replacing any earlier registration of the
// same name. Registration normally happens once at startup via RegisterAll.
func RegisterSpec(s Spec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Name] = s
}

func lookup(name PromptName) (Spec, bool) {
	registered.Do(RegisterAll)
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[name]
	return s, ok
}

// Names lists every registered prompt, for diagnostics.
func Names() []PromptName {
	registered.Do(RegisterAll)
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]PromptName, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	return out
}
