package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoader_LoadFile_YAML(t *testing.T) {
	content := `
model:
  provider: ollama
  name: llama3.2
  base_url: http://localhost:11434
database:
  driver: sqlite3
  dsn: "file:test.db?mode=ro"
agent:
  step_budget: 6
  default_limit: 50
`
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Model.Provider != "ollama" || cfg.Model.Name != "llama3.2" {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if cfg.Agent.StepBudget != 6 {
		t.Errorf("StepBudget = %d, want 6", cfg.Agent.StepBudget)
	}
	if cfg.Agent.DefaultLimit != 50 {
		t.Errorf("DefaultLimit = %d, want 50", cfg.Agent.DefaultLimit)
	}
	// Unset fields keep their defaults.
	if cfg.Database.QueryTimeoutSeconds != 30 {
		t.Errorf("QueryTimeoutSeconds = %d, want default 30", cfg.Database.QueryTimeoutSeconds)
	}
}

func TestLoader_LoadString_JSON(t *testing.T) {
	content := `{
		"model": {"provider": "openai", "name": "gpt-4o-mini", "api_key": "sk-test"},
		"database": {"driver": "pgx", "dsn": "postgres://localhost/sales"}
	}`

	cfg, err := NewLoader().LoadString(content, FormatJSON)
	if err != nil {
		t.Fatalf("LoadString() error = %v", err)
	}
	if cfg.Model.Provider != "openai" || cfg.Database.Driver != "pgx" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader().LoadFile("/nonexistent/config.yaml")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoader_UnsupportedExtension(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader().LoadFile(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoader_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SQLAGENT_KEY", "secret-123")

	content := `
model:
  provider: gemini
  name: gemini-2.0-flash
  api_key: ${TEST_SQLAGENT_KEY}
database:
  driver: sqlite3
  dsn: ${TEST_SQLAGENT_DSN:-file:fallback.db}
`
	cfg, err := NewLoader().LoadString(content, FormatYAML)
	if err != nil {
		t.Fatalf("LoadString() error = %v", err)
	}
	if cfg.Model.APIKey != "secret-123" {
		t.Errorf("APIKey = %q, want expanded env var", cfg.Model.APIKey)
	}
	if cfg.Database.DSN != "file:fallback.db" {
		t.Errorf("DSN = %q, want default expansion", cfg.Database.DSN)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"bad provider", func(c *Config) { c.Model.Provider = "claude" }, "model.provider"},
		{"missing model name", func(c *Config) { c.Model.Name = "" }, "model.name"},
		{"ollama without base url", func(c *Config) { c.Model.Provider = "ollama" }, "base_url"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"zero budget", func(c *Config) { c.Agent.StepBudget = 0 }, "step_budget"},
		{"negative limit", func(c *Config) { c.Agent.DefaultLimit = -1 }, "default_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnv_Required(t *testing.T) {
	_, err := (&envExpander{}).Expand("key: ${TEST_SQLAGENT_ABSENT:?api key is required}")
	if !errors.Is(err, ErrMissingEnvVar) {
		t.Errorf("error = %v, want ErrMissingEnvVar", err)
	}
}
