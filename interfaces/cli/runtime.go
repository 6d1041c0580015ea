package cli

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/SooryaOmeg/sqlagent/application"
	"github.com/SooryaOmeg/sqlagent/domain/tool"
	"github.com/SooryaOmeg/sqlagent/infrastructure/config"
	"github.com/SooryaOmeg/sqlagent/infrastructure/llm"
	"github.com/SooryaOmeg/sqlagent/infrastructure/logging"
	"github.com/SooryaOmeg/sqlagent/infrastructure/observability"
	"github.com/SooryaOmeg/sqlagent/pack/database"
)

// runtime bundles everything a command needs to answer questions.
type runtime struct {
	cfg        *config.Config
	db         *sql.DB
	registry   tool.Registry
	controller *application.Controller
	obs        *observability.Provider
}

// commonOptions are flags shared by the question-answering commands.
type commonOptions struct {
	configPath string
	dsn        string
	driver     string
	steps      int
	verbose    bool
}

// buildRuntime loads configuration, opens the database and assembles the
// controller. The caller owns Close.
func buildRuntime(opts *commonOptions) (*runtime, error) {
	rt, err := buildDataRuntime(opts)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(rt.cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}

	obs, err := observability.New(observability.Config{
		Enabled:        rt.cfg.Tracing.Enabled,
		ServiceVersion: Version,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	rt.obs = obs

	rt.controller = application.NewController(application.ControllerConfig{
		Provider:            provider,
		Registry:            rt.registry,
		Model:               rt.cfg.Model.Name,
		Temperature:         rt.cfg.Model.Temperature,
		MaxTokens:           rt.cfg.Model.MaxTokens,
		StepBudget:          rt.cfg.Agent.StepBudget,
		MaxObservationBytes: rt.cfg.Agent.MaxObservationBytes,
		Tracer:              obs.Tracer(),
	})

	return rt, nil
}

// buildDataRuntime opens the database and registers the tools, without
// touching the model backend. Commands that only inspect the catalog use
// this directly.
func buildDataRuntime(opts *commonOptions) (*runtime, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.NewLoader().LoadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// CLI flags override file configuration.
	if opts.dsn != "" {
		cfg.Database.DSN = opts.dsn
	}
	if opts.driver != "" {
		cfg.Database.Driver = opts.driver
	}
	if opts.steps > 0 {
		cfg.Agent.StepBudget = opts.steps
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	registry := tool.NewRegistry()
	if _, err := database.Register(registry, db,
		database.WithQueryTimeout(time.Duration(cfg.Database.QueryTimeoutSeconds)*time.Second),
		database.WithDefaultLimit(cfg.Agent.DefaultLimit),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register database tools: %w", err)
	}

	return &runtime{
		cfg:      cfg,
		db:       db,
		registry: registry,
	}, nil
}

// buildProvider selects the model backend from configuration.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.Model.Provider {
	case "gemini":
		if cfg.Model.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key (set GEMINI_API_KEY)")
		}
		return llm.NewGeminiProvider(llm.GeminiConfig{
			APIKey:  cfg.Model.APIKey,
			BaseURL: cfg.Model.BaseURL,
			Model:   cfg.Model.Name,
			Timeout: cfg.Model.TimeoutSeconds,
		}), nil
	case "openai":
		if cfg.Model.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key (set OPENAI_API_KEY)")
		}
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  cfg.Model.APIKey,
			BaseURL: cfg.Model.BaseURL,
			Model:   cfg.Model.Name,
			Timeout: cfg.Model.TimeoutSeconds,
		}), nil
	case "ollama":
		return llm.NewOllamaProvider(llm.OllamaConfig{
			BaseURL: cfg.Model.BaseURL,
			Model:   cfg.Model.Name,
			Timeout: cfg.Model.TimeoutSeconds,
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

// Close releases the runtime's resources.
func (r *runtime) Close() {
	if r.db != nil {
		r.db.Close()
	}
}
