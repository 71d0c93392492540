package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ledge/internal/dbus"
)

var statusOpts struct {
	jsonOutput bool
}

// bindingStatus is the JSON shape emitted with --json.
type bindingStatus struct {
	ID     string `json:"id"`
	Panel  string `json:"panel"`
	Output string `json:"output"`
	Anchor string `json:"anchor"`
	State  string `json:"state"`
	Width  int32  `json:"width"`
	Height int32  `json:"height"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon's panels and surfaces",
	Long: `Show the panels a running ledged daemon has loaded and the surface
bound for each (panel, output) pair, including its current autohide
state and committed size.

Use --json for machine-readable output.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.jsonOutput, "json", false,
		"Emit JSON instead of a table")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	if !client.Running() {
		return fmt.Errorf("ledged is not running")
	}

	info, err := client.ServerInformation()
	if err != nil {
		return fmt.Errorf("failed to query daemon: %w", err)
	}
	panels, err := client.ListPanels()
	if err != nil {
		return fmt.Errorf("failed to list panels: %w", err)
	}
	bindings, err := client.ListBindings()
	if err != nil {
		return fmt.Errorf("failed to list bindings: %w", err)
	}

	if statusOpts.jsonOutput {
		out := make([]bindingStatus, 0, len(bindings))
		for _, b := range bindings {
			out = append(out, bindingStatus{
				ID:     b.ID,
				Panel:  b.Panel,
				Output: b.Output,
				Anchor: b.Anchor,
				State:  b.State,
				Width:  b.Width,
				Height: b.Height,
			})
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}

	fmt.Printf("%s %s\n", info.Name, info.Version)
	fmt.Printf("panels: %d, surfaces: %d\n", len(panels), len(bindings))
	for _, b := range bindings {
		fmt.Printf("  %-16s %-12s %-6s %-8s %dx%d\n",
			b.Panel, b.Output, b.Anchor, b.State, b.Width, b.Height)
	}
	return nil
}
