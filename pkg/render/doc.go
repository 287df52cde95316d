// Package render groups the output renderers for derived trace data.
//
//   - [sink]: rectangle lists as SVG, PNG or JSON
//   - [hierarchy]: the layer tree as a Graphviz node-link diagram
//
// Both take values computed by the geometry and trace packages and never
// mutate them.
//
//	rects := geometry.DeriveRectangles(entry, geometry.Options{}, nil)
//	svg := sink.RenderSVG(rects, sink.WithLabels())
//
//	dot := hierarchy.ToDOT(entry, hierarchy.Options{})
//	tree, err := hierarchy.RenderSVG(ctx, dot)
//
// [sink]: github.com/matzehuels/winscope/pkg/render/sink
// [hierarchy]: github.com/matzehuels/winscope/pkg/render/hierarchy
package render
