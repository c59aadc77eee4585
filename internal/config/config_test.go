package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brain.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "logging:\n  debug: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Index.WindowSize != 1000 || cfg.Index.WindowOverlap != 200 {
		t.Errorf("expected default window 1000/200, got %d/%d",
			cfg.Index.WindowSize, cfg.Index.WindowOverlap)
	}
	if cfg.Dispatch.MaxAttempts != 3 {
		t.Errorf("expected default max_attempts 3, got %d", cfg.Dispatch.MaxAttempts)
	}
	if !cfg.Logging.Debug {
		t.Error("expected debug logging from file")
	}
}

func TestLoad_DurationParsing(t *testing.T) {
	path := writeConfig(t, `
dispatch:
  max_attempts: 2
  backoff_base: 250ms
  backoff_cap: 2s
  per_call_timeout: 10s
  max_response_length: 1000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Dispatch.BackoffBase.Std() != 250*time.Millisecond {
		t.Errorf("backoff_base = %v", cfg.Dispatch.BackoffBase.Std())
	}
	if cfg.Dispatch.PerCallTimeout.Std() != 10*time.Second {
		t.Errorf("per_call_timeout = %v", cfg.Dispatch.PerCallTimeout.Std())
	}
}

func TestValidate_OverlapMustBeSmallerThanWindow(t *testing.T) {
	cfg := Default()
	cfg.Index.WindowSize = 100
	cfg.Index.WindowOverlap = 100

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for overlap == window")
	}

	cfg.Index.WindowOverlap = 150
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for overlap > window")
	}
}

func TestValidate_NonPositiveWindow(t *testing.T) {
	cfg := Default()
	cfg.Index.WindowSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero window size")
	}
}

func TestValidate_RouteReferencesUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Routes = map[string]Route{
		"hint": {Backend: "nonexistent", Model: "m"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for route with unknown backend")
	}
}

func TestApplyEnv_BackendKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")

	cfg := Default()
	cfg.Backends = map[string]BackendConfig{
		"deepseek": {Kind: "openai", BaseURL: "https://api.deepseek.com/v1"},
	}
	cfg.applyEnv()

	if cfg.Backends["deepseek"].APIKey != "sk-test" {
		t.Errorf("expected env key override, got %q", cfg.Backends["deepseek"].APIKey)
	}
}

func TestApplyEnv_EnvironmentWinsOverFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg := Default()
	cfg.Backends = map[string]BackendConfig{
		"openai": {Kind: "openai", APIKey: "sk-from-file"},
	}
	cfg.Embedder.Provider = "openai"
	cfg.Embedder.APIKey = "sk-from-file"
	cfg.applyEnv()

	if cfg.Backends["openai"].APIKey != "sk-from-env" {
		t.Errorf("backend key: environment must win over the file, got %q", cfg.Backends["openai"].APIKey)
	}
	if cfg.Embedder.APIKey != "sk-from-env" {
		t.Errorf("embedder key: environment must win over the file, got %q", cfg.Embedder.APIKey)
	}
}
