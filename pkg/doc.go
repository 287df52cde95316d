// Package pkg provides the core libraries for Winscope trace inspection.
//
// # Overview
//
// Winscope reads SurfaceFlinger layer traces: timestamped snapshots of the
// layer tree an Android device composited. The libraries answer two
// questions a trace viewer keeps asking: where on a timeline does an entry
// sit (and which entry sits under a given pixel), and which rectangles does
// an entry paint, in what z order.
//
// # Architecture
//
// The typical data flow:
//
//	trace.json
//	    ↓
//	[io] package (decode + validate)
//	    ↓
//	[trace] package (entries, layers, displays)
//	    ↓                         ↘
//	[geometry] package            [timeline] package
//	(z order + rectangles)        (timestamp ↔ pixel)
//	    ↓
//	[render] packages (SVG/PNG/JSON, Graphviz hierarchy)
//
// # Quick Start
//
// Derive the rectangles of the last entry and place every entry on a
// 1000px timeline:
//
//	import (
//	    traceio "github.com/matzehuels/winscope/pkg/io"
//	    "github.com/matzehuels/winscope/pkg/geometry"
//	    "github.com/matzehuels/winscope/pkg/timeline"
//	    "github.com/matzehuels/winscope/pkg/render/sink"
//	)
//
//	t, _ := traceio.ImportTrace("layers.json")
//	last, _ := t.Entry(t.Len() - 1)
//	rects := geometry.DeriveRectangles(*last, geometry.Options{}, nil)
//	svg := sink.RenderSVG(rects)
//
//	tr, _ := timeline.NewTransformer(t.Range(), timeline.PixelRange{From: 0, To: 1000})
//	xs := timeline.Positions(tr, t.Timestamps())
//
// # Main Packages
//
// ## Domain
//
// [timestamp] - Nanosecond instants, real and elapsed clocks, ranges, and
// parsing/formatting of user-entered times.
//
// [trace] - Trace, entry, layer and display types with validation and
// entry lookup by index or time.
//
// [timeline] - The linear timestamp ↔ pixel transformer, plus scrubbing,
// zooming and panning built on it.
//
// [geometry] - Z-order comparison and the derivation of display and layer
// rectangles from an entry. Also hit testing.
//
// [viewcapture] - Package sets read from view-capture traces, used to mark
// layers that have content.
//
// ## Serialization and Rendering
//
// [io] - JSON trace import/export and rectangle export.
//
// [render/sink] - Rectangle lists as SVG, PNG or JSON.
//
// [render/hierarchy] - The layer tree as Graphviz DOT or SVG.
//
// ## Infrastructure
//
// [pipeline] - Load → derive → render with caching, shared by the CLI and
// the HTTP server.
//
// [cache] - File, memory, Redis and null caches with a common interface.
//
// [server] - The HTTP API (chi).
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [errors] - Error codes and input validation.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/geometry/...           # Specific package
//	go test -run Example                 # Examples only
//	go test -tags integration ./pkg/...  # Include integration tests (Redis)
//
// [timestamp]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/timestamp
// [trace]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/trace
// [timeline]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/timeline
// [geometry]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/geometry
// [viewcapture]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/viewcapture
// [io]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/io
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/render/sink
// [render/hierarchy]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/render/hierarchy
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/cache
// [server]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/winscope/pkg/errors
package pkg
