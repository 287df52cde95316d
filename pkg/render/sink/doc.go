// Package sink renders derived layer rectangles to output formats.
//
// A "sink" takes the rectangle list produced by geometry.DeriveRectangles
// (top-most first, displays last) and paints it back to front:
//
//   - SVG: one group per rectangle carrying its affine transform
//   - PNG: rasterised with golang.org/x/image/vector
//   - JSON: the rectangle list plus the canvas bounds
//
// Basic usage:
//
//	rects := geometry.DeriveRectangles(entry, geometry.Options{}, pkgs)
//	svg := sink.RenderSVG(rects, sink.WithLabels(), sink.WithHighlight(id))
//	png, err := sink.RenderPNG(rects, sink.WithPNGWidth(800))
//
// Displays are drawn first and dashed in SVG, so every layer appears on top
// of the screen it belongs to. Layers whose package has a view capture are
// tinted differently; invisible (occluded) layers are drawn faint.
package sink
