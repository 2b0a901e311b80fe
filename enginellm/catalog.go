package enginellm

import "strings"

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID            string   `json:"id"`
	Provider      string   `json:"provider"`
	DisplayName   string   `json:"display_name"`
	ContextWindow int      `json:"context_window"`
	SupportsTools bool     `json:"supports_tools"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Models is the built-in model catalog.
var Models = []ModelInfo{
	{
		ID: "claude-opus-4-6", Provider: "anthropic", DisplayName: "Claude Opus 4.6",
		ContextWindow: 200000, SupportsTools: true,
		Aliases: []string{"opus", "claude-opus"},
	},
	{
		ID: "claude-sonnet-4-5", Provider: "anthropic", DisplayName: "Claude Sonnet 4.5",
		ContextWindow: 200000, SupportsTools: true,
		Aliases: []string{"sonnet", "claude-sonnet"},
	},
	{
		ID: "gpt-5.2", Provider: "openai", DisplayName: "GPT-5.2",
		ContextWindow: 1047576, SupportsTools: true,
		Aliases: []string{"gpt5"},
	},
	{
		ID: "gpt-5.2-mini", Provider: "openai", DisplayName: "GPT-5.2 Mini",
		ContextWindow: 1047576, SupportsTools: true,
		Aliases: []string{"gpt5-mini"},
	},
	{
		ID: "gpt-4o-mini", Provider: "openai", DisplayName: "GPT-4o Mini",
		ContextWindow: 128000, SupportsTools: true,
	},
}

// GetModelInfo looks up a model by ID or alias.
func GetModelInfo(id string) *ModelInfo {
	if id == "" {
		return nil
	}
	lower := strings.ToLower(id)
	for i := range Models {
		m := &Models[i]
		if strings.ToLower(m.ID) == lower {
			return m
		}
		for _, alias := range m.Aliases {
			if strings.ToLower(alias) == lower {
				return m
			}
		}
	}
	return nil
}

// GetLatestModel returns the first catalog entry for a provider,
// optionally filtered by an ID prefix.
func GetLatestModel(provider, prefix string) *ModelInfo {
	for i := range Models {
		m := &Models[i]
		if m.Provider != provider {
			continue
		}
		if prefix != "" && !strings.HasPrefix(m.ID, prefix) {
			continue
		}
		return m
	}
	return nil
}
