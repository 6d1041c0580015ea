// Package database provides the read-only database tools the agent
// dispatches: list_tables, describe_table and query_database.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SooryaOmeg/sqlagent/domain/agent"
	"github.com/SooryaOmeg/sqlagent/domain/sqlguard"
	"github.com/SooryaOmeg/sqlagent/domain/tool"
	"github.com/SooryaOmeg/sqlagent/infrastructure/introspect"
	"github.com/SooryaOmeg/sqlagent/infrastructure/logging"
)

// Config configures the database pack.
type Config struct {
	// DB is the database connection pool (required).
	DB *sql.DB

	// QueryTimeout bounds each statement (default: 30s).
	QueryTimeout time.Duration

	// DefaultLimit is the row limit injected into unbounded queries.
	DefaultLimit int
}

// Option configures the database pack.
type Option func(*Config)

// WithQueryTimeout sets the query timeout.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.QueryTimeout = timeout
	}
}

// WithDefaultLimit sets the row limit injected into unbounded queries.
func WithDefaultLimit(limit int) Option {
	return func(c *Config) {
		c.DefaultLimit = limit
	}
}

// Register builds the three database tools and adds them to the registry.
// It returns the inspector so the caller can share its schema snapshot.
func Register(reg tool.Registry, db *sql.DB, opts ...Option) (*introspect.Inspector, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}

	cfg := Config{
		DB:           db,
		QueryTimeout: 30 * time.Second,
		DefaultLimit: sqlguard.DefaultRowLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	inspector := introspect.NewInspector(db)
	guard := sqlguard.New(cfg.DefaultLimit)

	tools := []tool.Tool{
		listTablesTool(&cfg, inspector),
		describeTableTool(&cfg, inspector),
		queryDatabaseTool(&cfg, inspector, guard),
	}
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return inspector, nil
}

func listTablesTool(cfg *Config, inspector *introspect.Inspector) tool.Tool {
	return tool.NewBuilder("list_tables").
		WithDescription("Lists all tables in the database").
		WithInputSchema(tool.EmptySchema()).
		ReadOnly().
		WithHandler(func(ctx context.Context, _ json.RawMessage) (agent.Observation, error) {
			ctx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
			defer cancel()

			tables, err := inspector.ListTables(ctx)
			if err != nil {
				return nil, err
			}
			return &agent.TableList{Tables: tables}, nil
		}).
		MustBuild()
}

type describeInput struct {
	TableName string `json:"table_name"`
}

func describeTableTool(cfg *Config, inspector *introspect.Inspector) tool.Tool {
	return tool.NewBuilder("describe_table").
		WithDescription("Returns schema details for a specific table including columns, types, and row count").
		WithInputSchema(tool.NewSchema(tool.Param{
			Name: "table_name", Type: "string",
			Description: "name of the table to describe", Required: true,
		})).
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (agent.Observation, error) {
			var in describeInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, err
			}

			ctx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
			defer cancel()

			schema, err := inspector.DescribeTable(ctx, in.TableName)
			if err != nil {
				var unknown *introspect.UnknownTableError
				if errors.As(err, &unknown) {
					return agent.Errorf("%s", unknown.Error()), nil
				}
				return nil, err
			}
			return schema, nil
		}).
		MustBuild()
}

type queryInput struct {
	Query string `json:"query"`
}

func queryDatabaseTool(cfg *Config, inspector *introspect.Inspector, guard *sqlguard.Validator) tool.Tool {
	return tool.NewBuilder("query_database").
		WithDescription("Executes a read-only SELECT query on the database").
		WithInputSchema(tool.NewSchema(tool.Param{
			Name: "query", Type: "string",
			Description: "SQL SELECT query to execute", Required: true,
		})).
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (agent.Observation, error) {
			var in queryInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, err
			}

			ctx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
			defer cancel()

			snap, err := inspector.Snapshot(ctx)
			if err != nil {
				return nil, err
			}

			prepared, rejection := guard.Validate(in.Query, snap)
			if rejection != nil {
				return agent.Errorf("%s", rejection.Detail), nil
			}
			if prepared.LimitApplied {
				logging.Debug().
					Add(logging.Component("database")).
					Add(logging.Int("limit", guard.DefaultLimit())).
					Msg("row limit injected")
			}

			obs, err := runQuery(ctx, cfg.DB, prepared.Query)
			if err != nil {
				return nil, err
			}
			if result, ok := obs.(*agent.QueryResult); ok {
				logging.Debug().
					Add(logging.Component("database")).
					Add(logging.Rows(result.RowCount)).
					Msg("query returned")
			}
			return obs, nil
		}).
		MustBuild()
}

// runQuery executes a validated statement and shapes the rows for the
// wire. Driver errors come back as observations, not faults: a broken
// query is something the model can repair on its next step.
func runQuery(ctx context.Context, db *sql.DB, query string) (agent.Observation, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return agent.Errorf("query failed: %v", err), nil
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &agent.QueryResult{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		for i, val := range values {
			// []byte columns render as base64 in JSON otherwise
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return agent.Errorf("row iteration failed: %v", err), nil
	}

	result.RowCount = len(result.Rows)
	return result, nil
}
