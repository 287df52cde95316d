package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/winscope/pkg/errors"
	traceio "github.com/matzehuels/winscope/pkg/io"
	"github.com/matzehuels/winscope/pkg/timeline"
	"github.com/matzehuels/winscope/pkg/timestamp"
	"github.com/matzehuels/winscope/pkg/trace"
)

// timelineFlags holds flags for the timeline command.
type timelineFlags struct {
	width  int
	from   string
	to     string
	pixels []float64
}

// timelineCommand creates the timeline command.
func (c *CLI) timelineCommand() *cobra.Command {
	var flags timelineFlags

	cmd := &cobra.Command{
		Use:   "timeline [trace.json]",
		Short: "Map trace entries onto a pixel timeline",
		Long: `Map the entries of a trace onto a timeline of the given width.

The view defaults to the span of the trace; narrow it with --from and --to.
Each --px value is converted back to a timestamp and snapped to the nearest
entry, as dragging a scrubber would.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTraceFiles,
		RunE:              func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("width") {
				flags.width = c.Config.TimelineWidth
			}
			return c.runTimeline(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().IntVarP(&flags.width, "width", "w", 80, "timeline width in pixels (columns)")
	cmd.Flags().StringVar(&flags.from, "from", "", "start of the view (default: first entry)")
	cmd.Flags().StringVar(&flags.to, "to", "", "end of the view (default: last entry)")
	cmd.Flags().Float64SliceVar(&flags.pixels, "px", nil, "pixel coordinate(s) to convert back to time")

	return cmd
}

func (c *CLI) runTimeline(ctx context.Context, path string, flags timelineFlags) error {
	if err := errors.ValidateWidth("width", float64(flags.width)); err != nil {
		return err
	}
	t, err := traceio.ImportTrace(path)
	if err != nil {
		return err
	}
	view, err := parseView(t, flags.from, flags.to)
	if err != nil {
		return err
	}
	sc, err := timeline.NewScrubber(view, float64(flags.width), t.Timestamps())
	if err != nil {
		return err
	}
	tr := sc.Transformer()
	loggerFromContext(ctx).Debug("timeline", "from", view.From, "to", view.To, "width", flags.width)

	printKeyValue("Entries", strconv.Itoa(t.Len()))
	printKeyValue("View", fmt.Sprintf("%s → %s",
		timestamp.Format(view.From, t.Kind), timestamp.Format(view.To, t.Kind)))
	fmt.Fprintln(stdout, ruler(timeline.Positions(tr, sc.Entries()), flags.width, -1))

	rows := make([][]string, 0, t.Len())
	for i, e := range t.Entries {
		rows = append(rows, []string{
			strconv.Itoa(i),
			timestamp.Format(e.Timestamp, t.Kind),
			strconv.FormatFloat(tr.Transform(e.Timestamp), 'f', 2, 64),
			strconv.Itoa(len(e.Layers)),
		})
	}
	fmt.Fprintln(stdout, renderTable([]string{"#", "Timestamp", "Pixel", "Layers"}, rows, -1))

	if len(flags.pixels) == 0 {
		return nil
	}
	rows = rows[:0]
	for _, px := range flags.pixels {
		pos := sc.Seek(px)
		entry := "-"
		if pos.Index >= 0 {
			entry = fmt.Sprintf("%d (%s)", pos.Index, timestamp.Format(pos.Entry, t.Kind))
		}
		rows = append(rows, []string{
			strconv.FormatFloat(px, 'f', -1, 64),
			timestamp.Format(pos.Time, t.Kind),
			entry,
		})
	}
	fmt.Fprintln(stdout, renderTable([]string{"Pixel", "Time", "Nearest entry"}, rows, -1))
	return nil
}

// parseView returns the trace's view narrowed by from and to.
func parseView(t *trace.Trace, from, to string) (timestamp.TimeRange, error) {
	view := t.View()
	var err error
	if from != "" {
		if view.From, err = timestamp.Parse(from); err != nil {
			return view, err
		}
	}
	if to != "" {
		if view.To, err = timestamp.Parse(to); err != nil {
			return view, err
		}
	}
	return view, nil
}

// ruler draws a one-line timeline of width columns with a tick per position.
// cursor, when in range, marks the scrubber column.
func ruler(positions []float64, width int, cursor int) string {
	if width <= 0 {
		return ""
	}
	cells := []rune(strings.Repeat("─", width))
	for _, p := range positions {
		col := int(math.Round(p))
		if col >= width {
			col = width - 1
		}
		if col >= 0 {
			cells[col] = '┃'
		}
	}
	line := StyleDim.Render(string(cells))
	if cursor >= 0 && cursor < width {
		line = StyleDim.Render(string(cells[:cursor])) +
			StyleHighlight.Render("▼") +
			StyleDim.Render(string(cells[cursor+1:]))
	}
	return line
}
