package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/winscope/pkg/geometry"
	"github.com/matzehuels/winscope/pkg/trace"
)

// Rect is the JSON form of a geometry.Rectangle.
type Rect struct {
	ID           string     `json:"id"`
	Label        string     `json:"label"`
	TopLeft      Point      `json:"topLeft"`
	BottomRight  Point      `json:"bottomRight"`
	Transform    [6]float64 `json:"transform"`
	IsVisible    bool       `json:"isVisible"`
	IsDisplay    bool       `json:"isDisplay"`
	DisplayID    int64      `json:"displayId"`
	IsVirtual    bool       `json:"isVirtual"`
	IsClickable  bool       `json:"isClickable"`
	CornerRadius float64    `json:"cornerRadius"`
	HasContent   bool       `json:"hasContent"`
}

// Point is an x/y pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToRects converts rectangles to their JSON form, preserving order.
func ToRects(rects []geometry.Rectangle) []Rect {
	out := make([]Rect, len(rects))
	for i, r := range rects {
		out[i] = Rect{
			ID:           r.ID,
			Label:        r.Label,
			TopLeft:      Point{X: r.TopLeft.X, Y: r.TopLeft.Y},
			BottomRight:  Point{X: r.BottomRight.X, Y: r.BottomRight.Y},
			Transform:    r.Transform,
			IsVisible:    r.IsVisible,
			IsDisplay:    r.IsDisplay,
			DisplayID:    r.DisplayID,
			IsVirtual:    r.IsVirtual,
			IsClickable:  r.IsClickable,
			CornerRadius: r.CornerRadius,
			HasContent:   r.HasContent,
		}
	}
	return out
}

// FromRects converts JSON rectangles back, preserving order.
func FromRects(in []Rect) []geometry.Rectangle {
	out := make([]geometry.Rectangle, len(in))
	for i, r := range in {
		out[i] = geometry.Rectangle{
			ID:           r.ID,
			Label:        r.Label,
			TopLeft:      vec.Vec2{X: r.TopLeft.X, Y: r.TopLeft.Y},
			BottomRight:  vec.Vec2{X: r.BottomRight.X, Y: r.BottomRight.Y},
			Transform:    matrix.Matrix(r.Transform),
			IsVisible:    r.IsVisible,
			IsDisplay:    r.IsDisplay,
			DisplayID:    r.DisplayID,
			IsVirtual:    r.IsVirtual,
			IsClickable:  r.IsClickable,
			CornerRadius: r.CornerRadius,
			HasContent:   r.HasContent,
		}
	}
	return out
}

// ReadRectanglesJSON decodes the output of [WriteRectanglesJSON].
func ReadRectanglesJSON(r io.Reader) ([]geometry.Rectangle, error) {
	var in []Rect
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromRects(in), nil
}

// WriteRectanglesJSON encodes rects as an indented JSON array, top-most first.
func WriteRectanglesJSON(w io.Writer, rects []geometry.Rectangle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToRects(rects)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportRectanglesJSON writes rects to a JSON file at path.
func ExportRectanglesJSON(path string, rects []geometry.Rectangle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteRectanglesJSON(f, rects)
}

// WriteTrace encodes t in the format [ReadTrace] accepts. Timestamps are
// written as strings so they survive JSON readers that use float64 numbers.
func WriteTrace(w io.Writer, t *trace.Trace) error {
	out := traceFile{Kind: t.Kind.String(), Entries: make([]entry, len(t.Entries))}
	for i, e := range t.Entries {
		out.Entries[i] = encodeEntry(e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func encodeEntry(e trace.Entry) entry {
	out := entry{
		Timestamp: wireTimestamp(e.Timestamp),
		Layers:    make([]layer, len(e.Layers)),
		Displays:  make([]display, len(e.Displays)),
	}
	for i, l := range e.Layers {
		wl := layer{
			ID:         l.ID,
			StableID:   l.StableID,
			Name:       l.Name,
			LayerStack: l.StackID,
			Visible:    l.IsVisible,
			ZOrderPath: l.ZOrderPath,
			OccludedBy: l.OccludedBy,
			Bounds: bounds{
				Left:         l.Bounds.Left,
				Top:          l.Bounds.Top,
				Right:        l.Bounds.Right,
				Bottom:       l.Bounds.Bottom,
				CornerRadius: l.Bounds.CornerRadius,
				Label:        l.Bounds.Label,
			},
			Transform: fromMatrix(l.Transform),
		}
		if !l.IsRoot() {
			parent := l.ParentID
			wl.Parent = &parent
		}
		if l.Bounds.Transform != nil {
			wl.Bounds.Transform = fromMatrix(*l.Bounds.Transform)
		}
		out.Layers[i] = wl
	}
	for i, d := range e.Displays {
		wd := display{
			ID:         d.ID,
			Name:       d.Name,
			LayerStack: d.LayerStackID,
			Size:       size{Width: d.Size.Width, Height: d.Size.Height},
			Virtual:    d.IsVirtual,
		}
		if d.Transform != nil {
			wd.Transform = fromMatrix(*d.Transform)
		}
		out.Displays[i] = wd
	}
	return out
}
