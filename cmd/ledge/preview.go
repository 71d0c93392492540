package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
	"github.com/jmylchreest/ledge/internal/render"
)

var previewOpts struct {
	outFile string
	length  int
}

var previewCmd = &cobra.Command{
	Use:   "preview [panel]",
	Short: "Render a panel background to a PNG file",
	Long: `Render the configured background of a panel to a PNG file without a
running daemon or compositor.

The frame uses the panel's size class, corner radius, border and
opacity, so the result matches what the daemon would paint. With no
argument the first valid panel in the config is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVarP(&previewOpts.outFile, "out", "o", "",
		"Output file (default: <panel>.png)")
	previewCmd.Flags().IntVar(&previewOpts.length, "length", 800,
		"Length of the rendered bar along its edge, in pixels")
}

func runPreview(cmd *cobra.Command, args []string) error {
	path := globalOpts.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	panels := cfg.ValidPanels()
	if len(panels) == 0 {
		return fmt.Errorf("no valid panels in %s", path)
	}

	panel := &panels[0]
	if len(args) == 1 {
		panel = nil
		for i := range panels {
			if panels[i].Name == args[0] {
				panel = &panels[i]
				break
			}
		}
		if panel == nil {
			return fmt.Errorf("no valid panel named %q", args[0])
		}
	}

	full := panel.Thickness() + 2*panel.Padding
	size := geometry.Size{W: previewOpts.length, H: full}
	if !panel.Anchor.Horizontal() {
		size = geometry.Size{W: full, H: previewOpts.length}
	}

	params := render.Params{
		Size:    size,
		Radius:  panel.BorderRadius,
		Corners: render.CornersFor(panel.Anchor, panel.AnchorGap),
		Opacity: panel.Opacity,
		Shadow:  panel.AnchorGap,
	}
	if panel.Background.Style == config.BackgroundColor {
		params.Color = render.Color{
			R: panel.Background.Red,
			G: panel.Background.Green,
			B: panel.Background.Blue,
			A: panel.Background.Alpha,
		}
	} else {
		// Theme backgrounds resolve against the desktop style manager at
		// runtime; stand in with a dark neutral here.
		params.Color = render.Color{R: 0.13, G: 0.13, B: 0.14, A: 1}
	}
	if panel.AnchorGap {
		params.BorderWidth = 1
		params.BorderColor = render.Color{R: 1, G: 1, B: 1, A: 0.12}
	}

	img := render.Paint(params)

	out := previewOpts.outFile
	if out == "" {
		out = panel.Name + ".png"
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", out, err)
	}
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", out, err)
	}

	fmt.Printf("wrote %s (%dx%d, %s)\n", out, size.W, size.H, humanize.Bytes(uint64(st.Size())))
	return nil
}
