package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newShellCmd creates the interactive shell command.
func (a *App) newShellCmd() *cobra.Command {
	opts := &commonOptions{}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Ask questions interactively",
		Long: `Shell starts an interactive session. Each line is answered as one
bounded agent run against the configured database. Type "exit" or press
Ctrl-D to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "Database connection string (overrides config)")
	cmd.Flags().StringVar(&opts.driver, "driver", "", "Database driver: sqlite3 or pgx (overrides config)")
	cmd.Flags().IntVar(&opts.steps, "max-steps", 0, "Step budget for the reasoning loop (overrides config)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func (a *App) shell(ctx context.Context, opts *commonOptions) error {
	rt, err := buildRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()
	defer rt.obs.Shutdown(context.Background())

	fmt.Fprintf(a.stdout, "sqlagent shell (%s via %s). Type a question, or \"exit\" to quit.\n",
		rt.cfg.Database.Driver, rt.cfg.Model.Provider)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(a.stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(a.stdout)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		tr, err := rt.controller.Run(ctx, question)
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(a.stdout, tr.FinalAnswer)
		fmt.Fprintln(a.stdout)

		if err := ctx.Err(); err != nil {
			return nil
		}
	}
}
