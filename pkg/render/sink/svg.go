package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/winscope/pkg/geometry"
)

const rectCSS = `
    .display { fill: #f4f4f4; stroke: #555; stroke-dasharray: 8 4; }
    .layer { fill: #4a90d9; fill-opacity: 0.25; stroke: #1f5fa8; }
    .layer.content { fill: #f5a623; fill-opacity: 0.35; stroke: #b36b00; }
    .layer.hidden { fill-opacity: 0.06; stroke-dasharray: 2 2; }
    .highlight { stroke: #d0021b; stroke-width: 3; }
    .label { font-family: sans-serif; font-size: 12px; fill: #222; }
    rect { vector-effect: non-scaling-stroke; }`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	labels    bool
	highlight string
	width     float64
	margin    float64
}

// WithLabels draws each rectangle's label at its top-left corner.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithHighlight outlines the rectangle with the given ID.
func WithHighlight(id string) SVGOption { return func(r *svgRenderer) { r.highlight = id } }

// WithWidth sets the width attribute of the output; height follows the
// aspect ratio. Zero keeps the natural size.
func WithWidth(w float64) SVGOption { return func(r *svgRenderer) { r.width = w } }

// WithMargin pads the view box on every side.
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = m } }

// RenderSVG paints rects back to front. The view box covers the transformed
// extent of every rectangle.
func RenderSVG(rects []geometry.Rectangle, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	lo, hi, ok := geometry.Bounds(rects)
	if !ok {
		lo, hi = vec.Vec2{}, vec.Vec2{}
	}
	lo = vec.Vec2{X: lo.X - r.margin, Y: lo.Y - r.margin}
	hi = vec.Vec2{X: hi.X + r.margin, Y: hi.Y + r.margin}
	w, h := hi.X-lo.X, hi.Y-lo.Y

	outW, outH := w, h
	if r.width > 0 && w > 0 {
		outW, outH = r.width, h*r.width/w
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(lo.X), num(lo.Y), num(w), num(h), outW, outH)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", rectCSS)

	for i := len(rects) - 1; i >= 0; i-- {
		r.renderRect(&buf, rects[i])
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderRect(buf *bytes.Buffer, rect geometry.Rectangle) {
	fmt.Fprintf(buf, `  <g id="%s"%s>`+"\n", escapeXML(rect.ID), transformAttr(rect.Transform))
	fmt.Fprintf(buf, `    <rect class="%s" x="%s" y="%s" width="%s" height="%s"`,
		r.classes(rect), num(rect.TopLeft.X), num(rect.TopLeft.Y), num(rect.Width()), num(rect.Height()))
	if rect.CornerRadius > 0 {
		fmt.Fprintf(buf, ` rx="%s"`, num(rect.CornerRadius))
	}
	buf.WriteString(">")
	fmt.Fprintf(buf, "<title>%s</title></rect>\n", escapeXML(rect.Label))
	if r.labels && rect.Label != "" {
		fmt.Fprintf(buf, `    <text class="label" x="%s" y="%s">%s</text>`+"\n",
			num(rect.TopLeft.X+4), num(rect.TopLeft.Y+14), escapeXML(rect.Label))
	}
	buf.WriteString("  </g>\n")
}

func (r *svgRenderer) classes(rect geometry.Rectangle) string {
	var cls []string
	if rect.IsDisplay {
		cls = append(cls, "display")
	} else {
		cls = append(cls, "layer")
		if rect.HasContent {
			cls = append(cls, "content")
		}
		if !rect.IsVisible {
			cls = append(cls, "hidden")
		}
	}
	if r.highlight != "" && rect.ID == r.highlight {
		cls = append(cls, "highlight")
	}
	return strings.Join(cls, " ")
}

// transformAttr returns the SVG transform for m, or "" for the identity.
// matrix.Matrix uses the same component order as SVG's matrix(a b c d e f).
func transformAttr(m matrix.Matrix) string {
	if m == matrix.Identity || m == (matrix.Matrix{}) {
		return ""
	}
	return fmt.Sprintf(` transform="matrix(%s %s %s %s %s %s)"`,
		num(m[0]), num(m[1]), num(m[2]), num(m[3]), num(m[4]), num(m[5]))
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
