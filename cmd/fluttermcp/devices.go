// Package main provides the devices command for the fluttermcp CLI.
package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fluttermcp/cli/internal/emulator"
	"github.com/fluttermcp/cli/internal/toolchain"
	"github.com/fluttermcp/cli/internal/tui"
	"github.com/fluttermcp/cli/internal/ui"
)

var devicesPick bool

// devicesCmd lists connected devices and available emulator images.
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices and emulator images",
	Long: `List connected devices and installed Android emulator images.

Connected devices come from 'flutter devices'; emulator images come
from 'emulator -list-avds'. With --pick, an interactive picker lets you
choose an image to boot and waits for it to come up.

EXAMPLES:
  fluttermcp devices          # List everything
  fluttermcp devices --pick   # Pick and boot an emulator image`,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesPick, "pick", false, "Interactively pick and boot an emulator image")
}

// runDevices lists devices, or boots one interactively with --pick.
func runDevices(cmd *cobra.Command, args []string) error {
	runner := &toolchain.ExecRunner{}
	tc := toolchain.Discover()
	registry := emulator.NewRegistry(runner, tc)

	if devicesPick {
		if !ui.IsInteractive() {
			ui.PrintError("--pick requires an interactive terminal")
			return nil
		}
		orch := emulator.NewOrchestrator(registry, runner, tc)
		images := registry.ListImages(cmd.Context())
		booted, err := tui.PickAndLaunch(images, func(ctx context.Context, image string) error {
			return orch.EnsureRunning(ctx, image)
		})
		if err != nil {
			ui.PrintError("Launch failed: %v", err)
			return err
		}
		if booted != "" {
			ui.PrintSuccess("Emulator %s is up", booted)
		}
		return nil
	}

	devices := registry.ListConnected(cmd.Context())
	if len(devices) == 0 {
		ui.PrintWarning("No connected devices")
	} else {
		rows := make([][]string, len(devices))
		for i, d := range devices {
			rows[i] = []string{d.ID, d.Name, d.Platform, strconv.FormatBool(d.Emulator)}
		}
		ui.PrintTable([]string{"ID", "NAME", "PLATFORM", "EMULATOR"}, rows)
	}

	images := registry.ListImages(cmd.Context())
	if len(images) == 0 {
		ui.PrintDim("No emulator images installed")
		return nil
	}
	ui.PrintInfo("")
	ui.PrintInfo("Emulator images:")
	for _, image := range images {
		ui.PrintDim("  %s", image)
	}
	return nil
}
