package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"xcam/internal/ipc"
)

func newActionCommand(ctx *commandContext) *cobra.Command {
	actionCmd := &cobra.Command{
		Use:   "action",
		Short: "Enqueue and manage camera actions",
	}

	actionCmd.AddCommand(newActionAddCommand(ctx))
	actionCmd.AddCommand(newActionListCommand(ctx))
	actionCmd.AddCommand(newActionShowCommand(ctx))
	actionCmd.AddCommand(newActionRetryCommand(ctx))
	actionCmd.AddCommand(newActionClearCommand(ctx))
	actionCmd.AddCommand(newActionRemoveCommand(ctx))
	actionCmd.AddCommand(newActionResetCommand(ctx))

	return actionCmd
}

func newActionAddCommand(ctx *commandContext) *cobra.Command {
	var cameraID int64
	var macs []string
	var channels []int
	var rawAdditions string

	cmd := &cobra.Command{
		Use:   "add <command>",
		Short: "Queue a command for dispatch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			additions, err := buildAdditions(rawAdditions, cameraID, macs, channels)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ActionAdd(strings.TrimSpace(args[0]), additions)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued action %d (%s)\n", resp.Item.ID, resp.Item.Command)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&cameraID, "camera", 0, "Target a single camera by registry id")
	cmd.Flags().StringSliceVar(&macs, "mac", nil, "Target cameras by MAC address (repeatable)")
	cmd.Flags().IntSliceVar(&channels, "channel", nil, "Stream channels to operate on (1 or 2)")
	cmd.Flags().StringVar(&rawAdditions, "additions", "", "Raw additions JSON merged with selector flags")
	return cmd
}

// buildAdditions merges selector flags into the raw additions document.
// Flags win over keys already present in the document.
func buildAdditions(raw string, cameraID int64, macs []string, channels []int) (string, error) {
	doc := map[string]any{}
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
			return "", fmt.Errorf("parse --additions: %w", err)
		}
	}
	if cameraID > 0 {
		doc["camera_id"] = cameraID
	}
	if len(macs) > 0 {
		doc["mac_addresses"] = macs
	}
	if len(channels) > 0 {
		doc["channels"] = channels
	}
	if len(doc) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode additions: %w", err)
	}
	return string(encoded), nil
}

func newActionListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ActionList(listStatuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Items)
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Action queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Command", "Status", "Created", "Error"},
					buildActionRows(resp.Items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by action status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit actions as JSON")
	return cmd
}

func buildActionRows(actions []ipc.ActionView) [][]string {
	rows := make([][]string, 0, len(actions))
	for _, action := range actions {
		rows = append(rows, []string{
			strconv.FormatInt(action.ID, 10),
			action.Command,
			action.Status,
			action.CreatedAt,
			truncate(action.Error, 60),
		})
	}
	return rows
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}

func newActionShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <actionID>",
		Short: "Show a single action in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ActionDescribe(id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Item)
				}
				out := cmd.OutOrStdout()
				action := resp.Item
				fmt.Fprintf(out, "ID:       %d\n", action.ID)
				fmt.Fprintf(out, "Command:  %s\n", action.Command)
				fmt.Fprintf(out, "Status:   %s\n", action.Status)
				fmt.Fprintf(out, "Created:  %s\n", action.CreatedAt)
				fmt.Fprintf(out, "Updated:  %s\n", action.UpdatedAt)
				if len(action.Additions) > 0 {
					fmt.Fprintf(out, "Additions: %s\n", string(action.Additions))
				}
				if action.Error != "" {
					fmt.Fprintf(out, "Error:    %s\n", action.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit action as JSON")
	return cmd
}

func newActionRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [actionID...]",
		Short: "Retry failed actions",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					resp, err := client.ActionRetry(nil)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Retried %d failed actions\n", resp.Updated)
					return nil
				}

				for _, id := range ids {
					resp, err := client.ActionRetry([]int64{id})
					if err != nil {
						fmt.Fprintf(out, "Action %d: %v\n", id, err)
						continue
					}
					if resp.Updated > 0 {
						fmt.Fprintf(out, "Action %d reset for retry\n", id)
					} else {
						fmt.Fprintf(out, "Action %d is not in failed state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newActionClearCommand(ctx *commandContext) *cobra.Command {
	var clearDone bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queued actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearDone && clearFailed {
				return errors.New("specify only one of --done or --failed")
			}
			scope := "all"
			switch {
			case clearDone:
				scope = "done"
			case clearFailed:
				scope = "failed"
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ActionClear(scope)
				if err != nil {
					return err
				}
				switch scope {
				case "done":
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d done actions\n", resp.Removed)
				case "failed":
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed actions\n", resp.Removed)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d actions\n", resp.Removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearDone, "done", false, "Remove only completed actions")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed actions")
	return cmd
}

func newActionRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <actionID>",
		Short: "Remove a single action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ActionRemove(id)
				if err != nil {
					return err
				}
				if resp.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed action %d\n", id)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Action %d not found\n", id)
				}
				return nil
			})
		},
	}
}

func newActionResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight actions to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ActionReset()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d actions\n", resp.Updated)
				return nil
			})
		},
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
