package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xcam/internal/ipc"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Sweep the configured network for cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Scan()
				if err != nil {
					return err
				}
				if resp.Discovered == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No new cameras discovered")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Discovered %d cameras\n", resp.Discovered)
				return nil
			})
		},
	}
}
