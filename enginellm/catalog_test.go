package enginellm

import "testing"

func TestGetModelInfo(t *testing.T) {
	if info := GetModelInfo("claude-opus-4-6"); info == nil || info.Provider != "anthropic" {
		t.Errorf("expected anthropic model, got %+v", info)
	}
	if info := GetModelInfo("OPUS"); info == nil || info.ID != "claude-opus-4-6" {
		t.Errorf("alias lookup failed, got %+v", info)
	}
	if info := GetModelInfo("no-such-model"); info != nil {
		t.Errorf("expected nil for unknown model, got %+v", info)
	}
	if info := GetModelInfo(""); info != nil {
		t.Errorf("expected nil for empty id, got %+v", info)
	}
}

func TestGetLatestModel(t *testing.T) {
	if info := GetLatestModel("openai", ""); info == nil || info.Provider != "openai" {
		t.Errorf("expected an openai model, got %+v", info)
	}
	if info := GetLatestModel("openai", "gpt-4o"); info == nil || info.ID != "gpt-4o-mini" {
		t.Errorf("prefix lookup failed, got %+v", info)
	}
	if info := GetLatestModel("none", ""); info != nil {
		t.Errorf("expected nil for unknown provider, got %+v", info)
	}
}
