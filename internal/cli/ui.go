package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/winscope/pkg/geometry"
)

// stdout receives all user-facing output. Logs go to stderr.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary, selection
	colorGreen  = lipgloss.Color("35")  // success, layers with content
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorPurple = lipgloss.Color("141") // displays
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text, hidden layers
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for counts and indices.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleLayer    = lipgloss.NewStyle().Foreground(colorWhite)
	styleContent  = lipgloss.NewStyle().Foreground(colorGreen)
	styleHidden   = lipgloss.NewStyle().Foreground(colorDim)
	styleDisplay  = lipgloss.NewStyle().Foreground(colorPurple)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// status prints msg after a styled icon.
func status(icon string, iconStyle lipgloss.Style, msg string) {
	fmt.Fprintln(stdout, iconStyle.Render(icon)+" "+msg)
}

func printSuccess(format string, args ...any) {
	status(iconSuccess, styleIconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	status(iconError, styleIconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	status(iconWarning, styleIconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status(iconInfo, styleIconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value in a fixed-width key column.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints "N layers · M rects · cached|fresh".
func printStats(layers, rects int, cached bool) {
	state := styleComputed.Render(iconFresh)
	if cached {
		state = styleCached.Render(iconCached)
	}
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d layers", layers)),
		StyleDim.Render(fmt.Sprintf("%d rects", rects)),
		state,
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// =============================================================================
// Tables
// =============================================================================

// renderTable renders rows under headers. highlight, when non-negative, is
// the row index drawn selected.
func renderTable(headers []string, rows [][]string, highlight int) string {
	return newTable(headers, rows, func(row, col int) lipgloss.Style {
		switch {
		case row == highlight:
			return styleSelected
		case col == 0:
			return styleIconInfo
		}
		return styleLayer
	})
}

// renderRectsTable renders one row per rectangle, colored by kind: displays,
// layers with content, hidden layers and the rest. highlight is a row index.
func renderRectsTable(headers []string, rows [][]string, rects []geometry.Rectangle, highlight int) string {
	return newTable(headers, rows, func(row, col int) lipgloss.Style {
		if row == highlight {
			return styleSelected
		}
		if row < 0 || row >= len(rects) {
			return styleLayer
		}
		return rectStyle(rects[row])
	})
}

func rectStyle(r geometry.Rectangle) lipgloss.Style {
	switch {
	case r.IsDisplay:
		return styleDisplay
	case !r.IsVisible:
		return styleHidden
	case r.HasContent:
		return styleContent
	}
	return styleLayer
}

// newTable applies the shared border and header style; style colors body cells.
func newTable(headers []string, rows [][]string, style func(row, col int) lipgloss.Style) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return styleHeader
			}
			return style(row, col)
		}).
		Render()
}
