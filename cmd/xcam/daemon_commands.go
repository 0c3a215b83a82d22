package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"xcam/internal/daemonctl"
	"xcam/internal/deps"
	"xcam/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the xcam daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx, startLogLevel),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Log level for the launched daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the xcam daemon (terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit, killed process (pid %d)\n", result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var restartLogLevel string
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the xcam daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx, restartLogLevel),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.Stop.PID)
				} else {
					fmt.Fprintln(stdout, "Daemon stopped")
				}
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}
	restartCmd.Flags().StringVar(&restartLogLevel, "log-level", "", "Log level for the relaunched daemon")

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, camera, and action status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if statusJSON {
					return writeJSON(cmd, status)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, line := range daemonStatusLines(status, colorize) {
					fmt.Fprintln(stdout, line)
				}

				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, line := range dependencyLines(deps.CheckBinaries(deps.Requirements(ctx.configValue())), colorize) {
					fmt.Fprintln(stdout, line)
				}

				if len(status.HandlerHealth) > 0 {
					fmt.Fprintln(stdout)
					for _, line := range renderSectionHeader("Handlers", colorize) {
						fmt.Fprintln(stdout, line)
					}
					for _, line := range handlerHealthLines(status.HandlerHealth, colorize) {
						fmt.Fprintln(stdout, line)
					}
				}

				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Cameras", colorize) {
					fmt.Fprintln(stdout, line)
				}
				printStatsTable(cmd, status.CameraStats, "No cameras registered")

				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Actions", colorize) {
					fmt.Fprintln(stdout, line)
				}
				printStatsTable(cmd, status.ActionStats, "Action queue is empty")
				return nil
			})
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit status as JSON")

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func daemonStatusLines(status *ipc.StatusResponse, colorize bool) []string {
	runningKind := statusError
	runningDetail := "not running"
	if status.Running {
		runningKind = statusOK
		runningDetail = fmt.Sprintf("running (pid %d)", status.PID)
	}
	lines := []string{
		renderStatusLine("Daemon", runningKind, runningDetail, colorize),
		renderStatusLine("Database", statusInfo, status.DatabasePath, colorize),
		renderStatusLine("Workers", statusInfo, strconv.Itoa(status.Workers), colorize),
	}
	if strings.TrimSpace(status.LastError) != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, status.LastError, colorize))
	}
	return lines
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	return lines
}

func handlerHealthLines(health []ipc.HandlerHealth, colorize bool) []string {
	lines := make([]string, 0, len(health))
	for _, h := range health {
		kind := statusOK
		detail := "Ready"
		if !h.Ready {
			kind = statusError
			detail = strings.TrimSpace(h.Detail)
			if detail == "" {
				detail = "not ready"
			}
		}
		lines = append(lines, renderStatusLine(h.Name, kind, detail, colorize))
	}
	return lines
}

func printStatsTable(cmd *cobra.Command, stats map[string]int, emptyMessage string) {
	rows := buildStatsRows(stats)
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), emptyMessage)
		return
	}
	table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	fmt.Fprintln(cmd.OutOrStdout(), table)
}

func buildStatsRows(stats map[string]int) [][]string {
	keys := make([]string, 0, len(stats))
	for key, count := range stats {
		if count == 0 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, strconv.Itoa(stats[key])})
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{LogLevel: strings.TrimSpace(logLevel)}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
