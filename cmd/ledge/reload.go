package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ledge/internal/dbus"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask the running daemon to reload its configuration",
	Long: `Ask the running ledged daemon to re-read its configuration file and
rebind panels.

Unchanged panel entries keep their surfaces; only changed, added, or
removed entries are rebound.`,
	RunE: runReload,
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	if !client.Running() {
		return fmt.Errorf("ledged is not running")
	}

	if err := client.Reload(); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	fmt.Println("configuration reloaded")
	return nil
}
