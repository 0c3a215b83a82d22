package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xcam/internal/ipc"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show action queue and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				actionHealth, err := client.ActionHealth()
				if err != nil {
					return err
				}
				dbHealth, err := client.DatabaseHealth()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{
						"actions":  actionHealth,
						"database": dbHealth,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total: %d\nPending: %d\nIn progress: %d\nDone: %d\nFailed: %d\n",
					actionHealth.Total,
					actionHealth.Pending,
					actionHealth.InProgress,
					actionHealth.Done,
					actionHealth.Failed,
				)

				fmt.Fprintln(out)
				fmt.Fprintf(out, "Database: %s\n", dbHealth.DBPath)
				fmt.Fprintf(out, "Exists: %s  Readable: %s  Integrity: %s\n",
					yesNo(dbHealth.DatabaseExists),
					yesNo(dbHealth.DatabaseReadable),
					yesNo(dbHealth.IntegrityCheck),
				)
				if len(dbHealth.MissingColumns) > 0 {
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(dbHealth.MissingColumns, ", "))
				}
				if dbHealth.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", dbHealth.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit health as JSON")
	return cmd
}
