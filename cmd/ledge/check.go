package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ledge/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the panel configuration",
	Long: `Validate the panel configuration and report every schema violation.

Invalid panel entries are reported individually; the daemon skips them
at load time rather than refusing the whole file, so a config with
warnings here still starts.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := globalOpts.configPath
	if path == "" {
		path = config.ConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	problems := cfg.Validate()
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "warning: %v\n", p)
	}

	valid := cfg.ValidPanels()
	fmt.Printf("%s: %d panel(s) valid, %d rejected\n", path, len(valid), len(cfg.Panels)-len(valid))
	for _, p := range valid {
		fmt.Printf("  %-16s anchor=%-6s size=%-2s layer=%-10s output=%s applets=%d\n",
			p.Name, p.Anchor, p.Size, p.Layer, p.Output, len(p.Applets()))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d panel(s) rejected", len(problems))
	}
	return nil
}
