package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xcam/internal/ipc"
)

func newCameraCommand(ctx *commandContext) *cobra.Command {
	cameraCmd := &cobra.Command{
		Use:   "camera",
		Short: "Manage the camera registry",
	}

	cameraCmd.AddCommand(newCameraListCommand(ctx))
	cameraCmd.AddCommand(newCameraShowCommand(ctx))
	cameraCmd.AddCommand(newCameraAddCommand(ctx))
	cameraCmd.AddCommand(newCameraImportCommand(ctx))
	cameraCmd.AddCommand(newCameraSetStatusCommand(ctx, "activate", "active", "Mark a camera active"))
	cameraCmd.AddCommand(newCameraSetStatusCommand(ctx, "deactivate", "inactive", "Mark a camera inactive"))
	cameraCmd.AddCommand(newCameraRemoveCommand(ctx))

	return cameraCmd
}

func newCameraListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CameraList()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Items)
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No cameras registered")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Name", "IP", "MAC", "Channel", "Status"},
					buildCameraRows(resp.Items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit cameras as JSON")
	return cmd
}

func buildCameraRows(cameras []ipc.CameraView) [][]string {
	rows := make([][]string, 0, len(cameras))
	for _, camera := range cameras {
		rows = append(rows, []string{
			strconv.FormatInt(camera.ID, 10),
			camera.Name,
			camera.IPAddress,
			camera.MACAddress,
			strconv.Itoa(camera.Channel),
			camera.Status,
		})
	}
	return rows
}

func newCameraShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <cameraID>",
		Short: "Show a single camera in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CameraDescribe(id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Item)
				}
				out := cmd.OutOrStdout()
				camera := resp.Item
				fmt.Fprintf(out, "ID:      %d\n", camera.ID)
				fmt.Fprintf(out, "Name:    %s\n", camera.Name)
				fmt.Fprintf(out, "IP:      %s (%s)\n", camera.IPAddress, camera.IPType)
				fmt.Fprintf(out, "MAC:     %s\n", camera.MACAddress)
				fmt.Fprintf(out, "Channel: %d\n", camera.Channel)
				fmt.Fprintf(out, "Status:  %s\n", camera.Status)
				fmt.Fprintf(out, "Created: %s\n", camera.CreatedAt)
				fmt.Fprintf(out, "Updated: %s\n", camera.UpdatedAt)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit camera as JSON")
	return cmd
}

func newCameraAddCommand(ctx *commandContext) *cobra.Command {
	var record ipc.CameraRecord

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register or update a camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(record.IPAddress) == "" {
				return fmt.Errorf("--ip is required")
			}
			if strings.TrimSpace(record.MACAddress) == "" {
				return fmt.Errorf("--mac is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CameraUpsert(record)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered camera %d (%s)\n", resp.Item.ID, resp.Item.IPAddress)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&record.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&record.IPAddress, "ip", "", "Camera IP address")
	cmd.Flags().StringVar(&record.MACAddress, "mac", "", "Camera MAC address")
	cmd.Flags().StringVar(&record.IPType, "ip-type", "", "Address assignment: static or dhcp")
	cmd.Flags().StringVar(&record.Username, "username", "", "Device username")
	cmd.Flags().StringVar(&record.Password, "password", "", "Device password")
	cmd.Flags().IntVar(&record.Channel, "channel", 0, "Default stream channel")
	cmd.Flags().StringVar(&record.Status, "status", "", "Initial status: active or inactive")
	return cmd
}

// cameraSeed is the YAML shape accepted by `xcam camera import`.
type cameraSeed struct {
	Cameras []seedCamera `yaml:"cameras"`
}

type seedCamera struct {
	Name       string `yaml:"name"`
	IPAddress  string `yaml:"ip_address"`
	MACAddress string `yaml:"mac_address"`
	IPType     string `yaml:"ip_type"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Channel    int    `yaml:"channel"`
	Status     string `yaml:"status"`
}

func (s seedCamera) record() ipc.CameraRecord {
	return ipc.CameraRecord{
		Name:       s.Name,
		IPAddress:  s.IPAddress,
		MACAddress: s.MACAddress,
		IPType:     s.IPType,
		Username:   s.Username,
		Password:   s.Password,
		Channel:    s.Channel,
		Status:     s.Status,
	}
}

func newCameraImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Register cameras from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			var seed cameraSeed
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("parse seed file: %w", err)
			}
			if len(seed.Cameras) == 0 {
				return fmt.Errorf("seed file %s contains no cameras", args[0])
			}
			records := make([]ipc.CameraRecord, 0, len(seed.Cameras))
			for _, cam := range seed.Cameras {
				records = append(records, cam.record())
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CameraImport(records)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cameras\n", resp.Imported)
				return nil
			})
		},
	}
}

func newCameraSetStatusCommand(ctx *commandContext, use, status, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <cameraID>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.CameraSetStatus(id, status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Camera %d is now %s\n", id, status)
				return nil
			})
		},
	}
}

func newCameraRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <cameraID>",
		Short: "Remove a camera from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CameraRemove(id)
				if err != nil {
					return err
				}
				if resp.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed camera %d\n", id)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Camera %d not found\n", id)
				}
				return nil
			})
		},
	}
}
