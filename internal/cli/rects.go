package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/winscope/pkg/geometry"
	"github.com/matzehuels/winscope/pkg/pipeline"
	"github.com/matzehuels/winscope/pkg/timestamp"
	"github.com/matzehuels/winscope/pkg/viewcapture"
)

// rectsFlags holds flags for the rects command that do not map directly onto
// pipeline.Options.
type rectsFlags struct {
	formats      string
	output       string
	at           string
	viewCaptures []string
	noCache      bool
	table        bool
}

// rectsCommand creates the rects command.
func (c *CLI) rectsCommand() *cobra.Command {
	var flags rectsFlags
	opts := pipeline.Options{Entry: -1}

	cmd := &cobra.Command{
		Use:   "rects [trace.json]",
		Short: "Derive and render the rectangles of a trace entry",
		Long: `Derive the rectangles a SurfaceFlinger trace entry paints and render them.

Layers are ordered top-most first; one rectangle per display follows. By
default the last entry is used; pick another with --entry (negative values
count from the end) or --at (the entry in effect at that timestamp).

Layers of packages listed with --package, or whose view-capture trace is
given with --view-capture, are marked as having content.

Results are cached locally for faster subsequent runs.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTraceFiles,
		RunE:              func(cmd *cobra.Command, args []string) error {
			opts.TracePath = args[0]
			opts.Formats = parseFormats(flags.formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if !cmd.Flags().Changed("only-visible") {
				opts.OnlyVisible = c.Config.OnlyVisible
			}
			if !cmd.Flags().Changed("package") {
				opts.Packages = c.Config.Packages
			}
			return c.runRects(cmd.Context(), opts, flags)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.table, "table", false, "print the rectangles as a table")

	// Entry selection
	cmd.Flags().IntVarP(&opts.Entry, "entry", "e", opts.Entry, "entry index (negative counts from the end)")
	cmd.Flags().StringVar(&flags.at, "at", "", "select the entry in effect at this timestamp (ns, 1h2m3s or 2006-01-02T15:04:05)")

	// Derive flags
	cmd.Flags().BoolVar(&opts.OnlyVisible, "only-visible", false, "drop invisible layers even when occluded")
	cmd.Flags().StringSliceVar(&opts.Packages, "package", nil, "package whose layers have content (repeatable)")
	cmd.Flags().StringSliceVar(&flags.viewCaptures, "view-capture", nil, "view-capture trace whose package has content (repeatable)")

	// Render flags
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): svg (default), png, json, dot (comma-separated)")
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "output width in pixels")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "draw rectangle labels")
	cmd.Flags().StringVar(&opts.Highlight, "highlight", "", "rectangle ID to highlight")

	return cmd
}

// runRects executes the pipeline and writes its artifacts.
func (c *CLI) runRects(ctx context.Context, opts pipeline.Options, flags rectsFlags) error {
	if flags.at != "" {
		ts, err := timestamp.Parse(flags.at)
		if err != nil {
			return err
		}
		opts.At = &ts
	}

	if len(flags.viewCaptures) > 0 {
		set, err := viewcapture.Import(flags.viewCaptures...)
		if err != nil {
			return err
		}
		for _, p := range opts.Packages {
			if err := set.Add(p); err != nil {
				return err
			}
		}
		opts.ContentPackages = set
		c.Logger.Debug("loaded view-capture packages", "packages", set.Names())
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Deriving rectangles...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Derivation failed")
		return err
	}
	spinner.Stop()

	printSuccess("Entry %s at %s",
		StyleNumber.Render(strconv.Itoa(result.EntryIndex)),
		StyleHighlight.Render(timestamp.Format(result.Entry.Timestamp, result.Trace.Kind)))
	printStats(result.Stats.Layers, result.Stats.Rectangles, result.CacheInfo.DeriveHit)
	if opts.Highlight != "" {
		if _, ok := geometry.Find(result.Rectangles, opts.Highlight); !ok {
			printWarning("No rectangle with ID %q to highlight", opts.Highlight)
		}
	}

	if flags.table {
		fmt.Fprintln(stdout, rectsTable(result.Rectangles, opts.Highlight))
	}

	return writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     opts.TracePath,
		output:    flags.output,
		cacheHit:  result.CacheInfo.RenderHit,
	})
}

// rectsTable renders rects top-most first.
func rectsTable(rects []geometry.Rectangle, highlight string) string {
	hl := -1
	rows := make([][]string, len(rects))
	for i, r := range rects {
		if r.ID == highlight {
			hl = i
		}
		rows[i] = []string{
			strconv.Itoa(i),
			r.ID,
			fmt.Sprintf("%gx%g", r.Width(), r.Height()),
			fmt.Sprintf("%g,%g", r.Transform[4], r.Transform[5]),
			yesNo(r.IsVisible),
			yesNo(r.HasContent),
			kindOf(r),
		}
	}
	return renderRectsTable([]string{"#", "ID", "Size", "Offset", "Visible", "Content", "Kind"}, rows, rects, hl)
}

func kindOf(r geometry.Rectangle) string {
	switch {
	case r.IsDisplay && r.IsVirtual:
		return "virtual display"
	case r.IsDisplay:
		return "display"
	}
	return "layer"
}

func yesNo(b bool) string {
	if b {
		return iconSuccess
	}
	return ""
}
