// Package config provides configuration loading and parsing for the agent.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Configuration errors.
var (
	// ErrConfigNotFound indicates the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidFormat indicates the config could not be parsed.
	ErrInvalidFormat = errors.New("invalid config format")

	// ErrUnsupportedFormat indicates an unknown config file extension.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrValidationFailed indicates the config failed validation.
	ErrValidationFailed = errors.New("config validation failed")

	// ErrMissingEnvVar indicates a required environment variable is unset.
	ErrMissingEnvVar = errors.New("missing environment variable")
)

// Config is the root configuration for the agent process.
type Config struct {
	Model    Model    `yaml:"model" json:"model"`
	Database Database `yaml:"database" json:"database"`
	Agent    Agent    `yaml:"agent" json:"agent"`
	Logging  Logging  `yaml:"logging" json:"logging"`
	Tracing  Tracing  `yaml:"tracing" json:"tracing"`
}

// Model configures the language model provider.
type Model struct {
	// Provider selects the backend: gemini, openai, or ollama.
	Provider string `yaml:"provider" json:"provider"`

	// Name is the provider-specific model identifier.
	Name string `yaml:"name" json:"name"`

	// APIKey authenticates against the provider. Usually set via
	// ${GEMINI_API_KEY} or ${OPENAI_API_KEY} expansion.
	APIKey string `yaml:"api_key" json:"api_key"`

	// BaseURL overrides the provider endpoint (required for ollama).
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Temperature controls sampling randomness.
	Temperature float64 `yaml:"temperature" json:"temperature"`

	// MaxTokens caps the completion length; zero uses the provider default.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// TimeoutSeconds bounds each completion call.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Database configures the target database connection.
type Database struct {
	// Driver is the database/sql driver name: sqlite3 or pgx.
	Driver string `yaml:"driver" json:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn" json:"dsn"`

	// QueryTimeoutSeconds bounds each query execution.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" json:"query_timeout_seconds"`
}

// Agent configures the reasoning loop.
type Agent struct {
	// StepBudget is the maximum number of reasoning steps per question.
	StepBudget int `yaml:"step_budget" json:"step_budget"`

	// DefaultLimit is the row limit injected into unbounded queries.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// MaxObservationBytes truncates observations rendered into the
	// prompt; zero disables truncation.
	MaxObservationBytes int `yaml:"max_observation_bytes" json:"max_observation_bytes"`
}

// Logging configures structured log output.
type Logging struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Tracing configures OpenTelemetry span export.
type Tracing struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Default returns a configuration with sensible defaults: a local sqlite
// database and the Gemini provider keyed from the environment.
func Default() *Config {
	return &Config{
		Model: Model{
			Provider:       "gemini",
			Name:           "gemini-2.0-flash",
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			Temperature:    0.1,
			TimeoutSeconds: 60,
		},
		Database: Database{
			Driver:              "sqlite3",
			DSN:                 "file:agent.db?mode=ro",
			QueryTimeoutSeconds: 30,
		},
		Agent: Agent{
			StepBudget:          10,
			DefaultLimit:        100,
			MaxObservationBytes: 2000,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

var validProviders = []string{"gemini", "openai", "ollama"}
var validDrivers = []string{"sqlite3", "pgx"}

// Validate checks the configuration for structural problems. It collects
// every problem instead of stopping at the first one.
func (c *Config) Validate() error {
	var problems []string

	if !contains(validProviders, c.Model.Provider) {
		problems = append(problems, fmt.Sprintf(
			"model.provider must be one of %s, got %q",
			strings.Join(validProviders, ", "), c.Model.Provider))
	}
	if c.Model.Name == "" {
		problems = append(problems, "model.name is required")
	}
	if c.Model.Provider == "ollama" && c.Model.BaseURL == "" {
		problems = append(problems, "model.base_url is required for the ollama provider")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		problems = append(problems, "model.temperature must be between 0 and 2")
	}

	if !contains(validDrivers, c.Database.Driver) {
		problems = append(problems, fmt.Sprintf(
			"database.driver must be one of %s, got %q",
			strings.Join(validDrivers, ", "), c.Database.Driver))
	}
	if c.Database.DSN == "" {
		problems = append(problems, "database.dsn is required")
	}

	if c.Agent.StepBudget <= 0 {
		problems = append(problems, "agent.step_budget must be positive")
	}
	if c.Agent.DefaultLimit <= 0 {
		problems = append(problems, "agent.default_limit must be positive")
	}
	if c.Agent.MaxObservationBytes < 0 {
		problems = append(problems, "agent.max_observation_bytes cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(problems, "; "))
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
