package pipeline

import (
	"fmt"

	"github.com/matzehuels/winscope/pkg/geometry"
	"github.com/matzehuels/winscope/pkg/render/hierarchy"
	"github.com/matzehuels/winscope/pkg/render/sink"
	"github.com/matzehuels/winscope/pkg/trace"
)

// Render generates output artifacts in the requested formats for one entry.
// rects must be the rectangles derived from entry; index is the entry's
// position in its trace.
func Render(rects []geometry.Rectangle, entry *trace.Entry, index int, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(format, rects, entry, index, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(format string, rects []geometry.Rectangle, entry *trace.Entry, index int, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		svgOpts := []sink.SVGOption{sink.WithWidth(opts.Width)}
		if opts.Labels {
			svgOpts = append(svgOpts, sink.WithLabels())
		}
		if opts.Highlight != "" {
			svgOpts = append(svgOpts, sink.WithHighlight(opts.Highlight))
		}
		return sink.RenderSVG(rects, svgOpts...), nil
	case FormatPNG:
		return sink.RenderPNG(rects,
			sink.WithPNGWidth(int(opts.Width)),
			sink.WithPNGHighlight(opts.Highlight))
	case FormatJSON:
		return sink.RenderJSON(rects, sink.WithJSONEntry(index, entry.Timestamp))
	case FormatDOT:
		dot := hierarchy.ToDOT(*entry, hierarchy.Options{
			Detailed:    opts.Labels,
			OnlyVisible: opts.OnlyVisible,
		})
		return []byte(dot), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
