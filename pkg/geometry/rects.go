// Package geometry turns a SurfaceFlinger snapshot into the flat list of
// rectangles a layer view paints.
//
// [DeriveRectangles] filters the snapshot's layers, orders them top-most
// first with [CompareZOrder], and appends one rectangle per display. The
// output carries no hierarchy; it is ready for a renderer such as the SVG
// sink in pkg/render/sink.
//
// All functions here are pure: they never mutate their inputs and may be
// called concurrently on the same entry.
package geometry

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/winscope/pkg/trace"
)

// Rectangle is a render-ready shape.
type Rectangle struct {
	TopLeft      vec.Vec2
	BottomRight  vec.Vec2
	Label        string
	Transform    matrix.Matrix
	IsVisible    bool
	IsDisplay    bool
	ID           string
	DisplayID    int64
	IsVirtual    bool
	IsClickable  bool
	CornerRadius float64
	HasContent   bool
}

// Width returns the horizontal extent before the transform is applied.
func (r Rectangle) Width() float64 { return r.BottomRight.X - r.TopLeft.X }

// Height returns the vertical extent before the transform is applied.
func (r Rectangle) Height() float64 { return r.BottomRight.Y - r.TopLeft.Y }

// DisplayIDPrefix prefixes the ID of every display rectangle.
const DisplayIDPrefix = "Display - "

// Options controls which layers become rectangles.
type Options struct {
	// OnlyVisible drops invisible layers even when something occludes them.
	OnlyVisible bool
}

// ContentPackages reports whether a package is known to draw its own content
// (typically because a view-capture trace was recorded for it).
type ContentPackages interface {
	Contains(pkg string) bool
}

// DeriveRectangles returns the rectangles for entry: layer rectangles
// top-most first, followed by one rectangle per display in snapshot order.
//
// A layer is kept when it is visible, or when opts.OnlyVisible is false and
// at least one other layer occludes it. Everything else is a container with
// nothing to paint.
//
// pkgs may be nil, in which case no rectangle has content.
func DeriveRectangles(entry trace.Entry, opts Options, pkgs ContentPackages) []Rectangle {
	layers := FilterLayers(entry.Layers, opts)
	layers = SortByZOrder(layers)

	rects := make([]Rectangle, 0, len(layers)+len(entry.Displays))
	for _, l := range layers {
		rects = append(rects, LayerRectangle(l, pkgs))
	}
	for _, d := range entry.Displays {
		rects = append(rects, DisplayRectangle(d))
	}
	return rects
}

// FilterLayers returns the layers that produce a rectangle under opts, in
// input order.
func FilterLayers(layers []trace.Layer, opts Options) []trace.Layer {
	var out []trace.Layer
	for _, l := range layers {
		if l.IsVisible || (!opts.OnlyVisible && len(l.OccludedBy) > 0) {
			out = append(out, l)
		}
	}
	return out
}

// LayerRectangle converts a single layer.
func LayerRectangle(l trace.Layer, pkgs ContentPackages) Rectangle {
	transform := l.Transform
	if l.Bounds.Transform != nil {
		transform = *l.Bounds.Transform
	}
	return Rectangle{
		TopLeft:      vec.Vec2{X: l.Bounds.Left, Y: l.Bounds.Top},
		BottomRight:  vec.Vec2{X: l.Bounds.Right, Y: l.Bounds.Bottom},
		Label:        l.Label(),
		Transform:    transform,
		IsVisible:    l.IsVisible,
		IsDisplay:    false,
		ID:           l.StableID,
		DisplayID:    l.StackID,
		IsVirtual:    false,
		IsClickable:  true,
		CornerRadius: l.Bounds.CornerRadius,
		HasContent:   pkgs != nil && pkgs.Contains(l.PackageName()),
	}
}

// DisplayRectangle converts a display into a rectangle spanning its full size.
func DisplayRectangle(d trace.Display) Rectangle {
	transform := matrix.Identity
	if d.Transform != nil {
		transform = *d.Transform
	}
	return Rectangle{
		TopLeft:     vec.Vec2{X: 0, Y: 0},
		BottomRight: vec.Vec2{X: d.Size.Width, Y: d.Size.Height},
		Label:       d.Name,
		Transform:   transform,
		IsVisible:   false,
		IsDisplay:   true,
		ID:          DisplayIDPrefix + d.ID,
		DisplayID:   d.LayerStackID,
		IsVirtual:   d.IsVirtual,
		IsClickable: false,
	}
}
