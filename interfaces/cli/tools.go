package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SooryaOmeg/sqlagent/infrastructure/prompt"
)

// newToolsCmd creates the tools command.
func (a *App) newToolsCmd() *cobra.Command {
	opts := &commonOptions{}

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the agent can dispatch",
		Long: `Tools prints the tool catalog exactly as the model sees it in its
prompt, one line per tool with its parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildDataRuntime(opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintln(a.stdout, prompt.Catalog(rt.registry))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "Database connection string (overrides config)")
	cmd.Flags().StringVar(&opts.driver, "driver", "", "Database driver: sqlite3 or pgx (overrides config)")

	return cmd
}
