package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LLM_BASE_URL", "LLM_MODEL", "LLM_MAX_RETRIES", "RESULTS_DB"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMBaseURL != "http://localhost:11434/v1" {
		t.Errorf("LLMBaseURL = %q", cfg.LLMBaseURL)
	}
	if cfg.LLMModel != "qwen3:8b" {
		t.Errorf("LLMModel = %q", cfg.LLMModel)
	}
	if cfg.LLMMaxRetries != 3 {
		t.Errorf("LLMMaxRetries = %d", cfg.LLMMaxRetries)
	}
	if cfg.ResultsDB != "" {
		t.Errorf("ResultsDB = %q, want empty (store disabled)", cfg.ResultsDB)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "http://llm.internal:8080/v1")
	t.Setenv("LLM_MODEL", "llama3.1:70b")
	t.Setenv("LLM_MAX_RETRIES", "5")
	t.Setenv("LLM_TEMPERATURE", "0.0")
	t.Setenv("RESULTS_DB", "results.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMBaseURL != "http://llm.internal:8080/v1" || cfg.LLMModel != "llama3.1:70b" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.LLMMaxRetries != 5 {
		t.Errorf("LLMMaxRetries = %d, want 5", cfg.LLMMaxRetries)
	}
	if cfg.ResultsDB != "results.db" {
		t.Errorf("ResultsDB = %q", cfg.ResultsDB)
	}
}

func TestLoadRejectsInvalidRetries(t *testing.T) {
	t.Setenv("LLM_MAX_RETRIES", "-1")

	if _, err := Load(); err == nil {
		t.Error("negative retry count must fail validation")
	}
}
