package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SooryaOmeg/sqlagent/domain/agent"
)

type askOptions struct {
	commonOptions
	jsonOutput bool
	showTrace  bool
}

// newAskCmd creates the ask command.
func (a *App) newAskCmd() *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question about the database",
		Long: `Ask answers a single natural-language question and exits.

Examples:
  # Ask against a local sqlite file
  sqlagent ask --dsn "file:sales.db?mode=ro" "How many orders shipped in July?"

  # Use a config file and show the full reasoning trace
  sqlagent ask -c agent.yaml --trace "Which city has the most customers?"

  # Machine-readable output
  sqlagent ask -c agent.yaml --json "What tables do we have?"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ask(cmd.Context(), opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "Database connection string (overrides config)")
	cmd.Flags().StringVar(&opts.driver, "driver", "", "Database driver: sqlite3 or pgx (overrides config)")
	cmd.Flags().IntVar(&opts.steps, "max-steps", 0, "Step budget for the reasoning loop (overrides config)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVar(&opts.showTrace, "trace", false, "Print the reasoning trace before the answer")

	return cmd
}

func (a *App) ask(ctx context.Context, opts *askOptions, question string) error {
	rt, err := buildRuntime(&opts.commonOptions)
	if err != nil {
		return err
	}
	defer rt.Close()
	defer rt.obs.Shutdown(context.Background())

	tr, err := rt.controller.Run(ctx, question)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	return a.printResult(tr, opts.jsonOutput, opts.showTrace)
}

// traceResult is the JSON shape of a finished run.
type traceResult struct {
	TraceID  string   `json:"trace_id"`
	Question string   `json:"question"`
	Outcome  string   `json:"outcome"`
	Answer   string   `json:"answer"`
	Steps    int      `json:"steps"`
	Trace    []string `json:"trace,omitempty"`
}

func (a *App) printResult(tr *agent.Trace, asJSON, showTrace bool) error {
	if asJSON {
		result := traceResult{
			TraceID:  tr.ID,
			Question: tr.Question,
			Outcome:  string(tr.Outcome),
			Answer:   tr.FinalAnswer,
			Steps:    tr.Len(),
		}
		if showTrace {
			result.Trace = tr.Blocks()
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if showTrace {
		for i, block := range tr.Blocks() {
			fmt.Fprintf(a.stdout, "[step %d]\n%s\n\n", i+1, block)
		}
	}
	fmt.Fprintln(a.stdout, tr.FinalAnswer)
	return nil
}
