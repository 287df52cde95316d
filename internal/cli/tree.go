package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/pipeline"
	"github.com/matzehuels/winscope/pkg/render/hierarchy"
	"github.com/matzehuels/winscope/pkg/timestamp"
)

// treeFlags holds flags for the tree command.
type treeFlags struct {
	format   string
	output   string
	at       string
	detailed bool
}

// treeCommand creates the tree command.
func (c *CLI) treeCommand() *cobra.Command {
	var flags treeFlags
	opts := pipeline.Options{Entry: -1}

	cmd := &cobra.Command{
		Use:   "tree [trace.json]",
		Short: "Render the layer hierarchy of a trace entry",
		Long: `Render the parent/child tree of the layers in a trace entry.

Siblings are ordered by z order, lowest first. Invisible layers are drawn
dashed. Output is Graphviz DOT or an SVG laid out with Graphviz.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTraceFiles,
		RunE:              func(cmd *cobra.Command, args []string) error {
			opts.TracePath = args[0]
			if !cmd.Flags().Changed("only-visible") {
				opts.OnlyVisible = c.Config.OnlyVisible
			}
			return c.runTree(cmd.Context(), opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", pipeline.FormatSVG, "output format: svg or dot")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <trace>.<format>)")
	cmd.Flags().IntVarP(&opts.Entry, "entry", "e", opts.Entry, "entry index (negative counts from the end)")
	cmd.Flags().StringVar(&flags.at, "at", "", "select the entry in effect at this timestamp")
	cmd.Flags().BoolVar(&opts.OnlyVisible, "only-visible", false, "omit invisible subtrees")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "add IDs, z order and bounds to node labels")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, opts pipeline.Options, flags treeFlags) error {
	if flags.format != pipeline.FormatSVG && flags.format != pipeline.FormatDOT {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be svg or dot)", flags.format)
	}
	if flags.at != "" {
		ts, err := timestamp.Parse(flags.at)
		if err != nil {
			return err
		}
		opts.At = &ts
	}

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	defer runner.Close()

	t, _, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	entry, idx, err := pipeline.SelectEntry(t, opts)
	if err != nil {
		return err
	}
	c.Logger.Debug("selected entry", "index", idx, "layers", len(entry.Layers))

	data := []byte(hierarchy.ToDOT(*entry, hierarchy.Options{
		Detailed:    flags.detailed,
		OnlyVisible: opts.OnlyVisible,
	}))
	if flags.format == pipeline.FormatSVG {
		p := newProgress(c.Logger)
		spinner := newSpinnerWithContext(ctx, "Laying out hierarchy...")
		spinner.Start()
		data, err = hierarchy.RenderSVG(ctx, string(data))
		if err != nil {
			spinner.StopWithError("Layout failed")
			return err
		}
		spinner.Stop()
		p.done("Laid out hierarchy")
	}

	path := flags.output
	if path == "" {
		path = basePath("", opts.TracePath) + "." + flags.format
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess("Hierarchy of entry %s (%s layers)",
		StyleNumber.Render(strconv.Itoa(idx)), StyleNumber.Render(strconv.Itoa(len(entry.Layers))))
	printFile(path)
	return nil
}
