package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/winscope/pkg/geometry"
	"github.com/matzehuels/winscope/pkg/pipeline"
	"github.com/matzehuels/winscope/pkg/timeline"
	"github.com/matzehuels/winscope/pkg/timestamp"
	"github.com/matzehuels/winscope/pkg/trace"
)

// Scrubber styles
var (
	scrubDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	scrubValueStyle = lipgloss.NewStyle().Foreground(colorWhite)
)

const (
	zoomStep      = 2.0
	minViewWidth  = 1000 // 1µs
	panFraction   = 4    // a pan moves a quarter of the view
	defaultHeight = 10
)

// scrubCommand creates the interactive scrub command.
func (c *CLI) scrubCommand() *cobra.Command {
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "scrub [trace.json]",
		Short: "Browse a trace interactively along its timeline",
		Long: `Browse a trace interactively: move the scrubber between entries, zoom and
pan the timeline, and inspect the rectangles each entry paints.

Keys:
  ←/h →/l    previous / next entry
  +/- 0      zoom in / out / reset
  [ ]        pan left / right
  g G        first / last entry
  q          quit`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTraceFiles,
		RunE:              func(cmd *cobra.Command, args []string) error {
			opts.TracePath = args[0]
			if !cmd.Flags().Changed("only-visible") {
				opts.OnlyVisible = c.Config.OnlyVisible
			}
			if !cmd.Flags().Changed("package") {
				opts.Packages = c.Config.Packages
			}
			return c.runScrub(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.OnlyVisible, "only-visible", false, "drop invisible layers even when occluded")
	cmd.Flags().StringSliceVar(&opts.Packages, "package", nil, "package whose layers have content (repeatable)")

	return cmd
}

func (c *CLI) runScrub(ctx context.Context, opts pipeline.Options) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading trace...")
	spinner.Start()

	t, _, err := runner.Load(ctx, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return err
	}
	spinner.SetMessage("Deriving %d entries...", t.Len())
	rects, err := runner.DeriveAll(ctx, t, opts)
	if err != nil {
		spinner.StopWithError("Derivation failed")
		return err
	}
	spinner.Stop()

	m, err := newScrubModel(t, rects, c.Config.TimelineWidth)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// scrubModel - Interactive timeline scrubber
// =============================================================================

// scrubModel is the bubbletea model for the scrub command.
type scrubModel struct {
	trace    *trace.Trace
	rects    [][]geometry.Rectangle
	full     timestamp.TimeRange
	view     timestamp.TimeRange
	scrubber *timeline.Scrubber
	width    int
	height   int
}

// newScrubModel builds a model over t with rects indexed like t.Entries.
// The scrubber starts on the last entry.
func newScrubModel(t *trace.Trace, rects [][]geometry.Rectangle, width int) (scrubModel, error) {
	full := t.View()
	m := scrubModel{
		trace:  t,
		rects:  rects,
		full:   full,
		view:   full,
		width:  width,
		height: defaultHeight,
	}
	if err := m.rebuild(); err != nil {
		return m, err
	}
	m.scrubber.Step(t.Len())
	return m, nil
}

// rebuild recreates the scrubber for the current view and width, keeping
// the selected entry.
func (m *scrubModel) rebuild() error {
	cursor := -1
	if m.scrubber != nil {
		cursor = m.scrubber.Current().Index
	}
	sc, err := timeline.NewScrubber(m.view, float64(m.width), m.trace.Timestamps())
	if err != nil {
		return err
	}
	if cursor > 0 {
		sc.Step(cursor)
	}
	m.scrubber = sc
	return nil
}

func (m scrubModel) Init() tea.Cmd {
	return nil
}

func (m scrubModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.scrubber.Step(-1)
			m.follow()
		case "right", "l":
			m.scrubber.Step(1)
			m.follow()
		case "g", "home":
			m.scrubber.Step(-m.trace.Len())
			m.follow()
		case "G", "end":
			m.scrubber.Step(m.trace.Len())
			m.follow()
		case "+", "=":
			m.setView(timeline.Zoom(m.view, m.full, m.scrubber.Current().Time, zoomStep, minViewWidth))
		case "-":
			m.setView(timeline.Zoom(m.view, m.full, m.scrubber.Current().Time, 1/zoomStep, minViewWidth))
		case "0":
			m.setView(m.full)
		case "[":
			m.setView(timeline.Pan(m.view, m.full, -m.view.Width()/panFraction))
		case "]":
			m.setView(timeline.Pan(m.view, m.full, m.view.Width()/panFraction))
		}
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, 10)
		m.height = max(msg.Height-12, 3)
		_ = m.rebuild()
	}
	return m, nil
}

// setView switches to view, ignoring views the transformer rejects.
func (m *scrubModel) setView(view timestamp.TimeRange) {
	prev := m.view
	m.view = view
	if err := m.rebuild(); err != nil {
		m.view = prev
	}
}

// follow pans the view so the selected entry stays visible.
func (m *scrubModel) follow() {
	cur := m.scrubber.Current()
	if cur.Index < 0 || m.view.Contains(cur.Time) {
		return
	}
	delta := int64(cur.Time - m.view.From - timestamp.Timestamp(m.view.Width()/2))
	m.setView(timeline.Pan(m.view, m.full, delta))
}

func (m scrubModel) View() string {
	var b strings.Builder
	kind := m.trace.Kind

	b.WriteString(StyleTitle.Render("Timeline"))
	b.WriteString("\n")
	b.WriteString(scrubDimStyle.Render("←/→ entry  +/- zoom  [/] pan  0 reset  q quit"))
	b.WriteString("\n\n")

	cur := m.scrubber.Current()
	b.WriteString(ruler(timeline.Positions(m.scrubber.Transformer(), m.scrubber.Entries()), m.width, int(cur.Pixel)))
	b.WriteString("\n")
	b.WriteString(scrubDimStyle.Render(fmt.Sprintf("%-*s%s",
		max(m.width-len(timestamp.Format(m.view.To, kind)), 0),
		timestamp.Format(m.view.From, kind),
		timestamp.Format(m.view.To, kind))))
	b.WriteString("\n\n")

	if cur.Index < 0 {
		b.WriteString(scrubDimStyle.Render("  trace has no entries"))
		return b.String()
	}

	rects := m.rects[cur.Index]
	b.WriteString(scrubValueStyle.Render(fmt.Sprintf("Entry %d/%d at %s · %d rectangles",
		cur.Index+1, m.trace.Len(), timestamp.Format(cur.Time, kind), len(rects))))
	b.WriteString("\n")

	rows := make([][]string, 0, min(len(rects), m.height))
	for i, r := range rects {
		if i >= m.height {
			break
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			r.Label,
			fmt.Sprintf("%gx%g", r.Width(), r.Height()),
			kindOf(r),
		})
	}
	b.WriteString(renderRectsTable([]string{"#", "Label", "Size", "Kind"}, rows, rects, -1))
	if len(rects) > m.height {
		b.WriteString("\n")
		b.WriteString(scrubDimStyle.Render(fmt.Sprintf("  … %d more", len(rects)-m.height)))
	}
	return b.String()
}
