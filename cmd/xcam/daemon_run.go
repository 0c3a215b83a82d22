package main

import (
	"github.com/spf13/cobra"

	"xcam/internal/daemonrun"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:          "daemon",
		Short:        "Run the xcam daemon (internal)",
		Hidden:       true,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:   logLevel,
				SocketPath: socketOverride(ctx),
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	return cmd
}

// socketOverride returns the --socket flag value when set, or empty so the
// daemon derives the socket path from its data directory.
func socketOverride(ctx *commandContext) string {
	if ctx == nil || ctx.socketFlag == nil {
		return ""
	}
	return *ctx.socketFlag
}
