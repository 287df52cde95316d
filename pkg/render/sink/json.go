package sink

import (
	"encoding/json"

	"github.com/matzehuels/winscope/pkg/geometry"
	traceio "github.com/matzehuels/winscope/pkg/io"
	"github.com/matzehuels/winscope/pkg/timestamp"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	ts    *timestamp.Timestamp
	index int
}

// WithJSONEntry records which trace entry the rectangles were derived from.
func WithJSONEntry(index int, ts timestamp.Timestamp) JSONOption {
	return func(r *jsonRenderer) { r.index = index; r.ts = &ts }
}

type jsonOutput struct {
	Entry     *int           `json:"entry,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	Bounds    *jsonBounds    `json:"bounds,omitempty"`
	Rects     []traceio.Rect `json:"rects"`
}

type jsonBounds struct {
	Min traceio.Point `json:"min"`
	Max traceio.Point `json:"max"`
}

// RenderJSON exports rects, top-most first, together with their transformed
// bounding box. Timestamps are written as decimal strings.
func RenderJSON(rects []geometry.Rectangle, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{Rects: traceio.ToRects(rects)}
	if r.ts != nil {
		idx := r.index
		out.Entry = &idx
		out.Timestamp = r.ts.String()
	}
	if lo, hi, ok := geometry.Bounds(rects); ok {
		out.Bounds = &jsonBounds{
			Min: traceio.Point{X: lo.X, Y: lo.Y},
			Max: traceio.Point{X: hi.X, Y: hi.Y},
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
