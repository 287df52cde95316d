// Package hierarchy renders the layer tree of a snapshot as a node-link
// diagram.
//
// [ToDOT] emits Graphviz DOT with one node per layer and an edge from each
// parent to its children; [RenderSVG] lays it out with Graphviz.
//
//	dot := hierarchy.ToDOT(entry, hierarchy.Options{Detailed: true})
//	svg, err := hierarchy.RenderSVG(ctx, dot)
package hierarchy

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/winscope/pkg/trace"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the layer ID, z-order path and bounds to each label.
	// When false, only the layer name is shown.
	Detailed bool

	// OnlyVisible omits invisible layers that have no visible descendant.
	OnlyVisible bool
}

// ToDOT converts the layer tree of entry to Graphviz DOT. Siblings are listed
// in z order, lowest first, so Graphviz places them left to right.
//
// Invisible layers are drawn dashed and grey. Layers whose parent is not in
// the snapshot become roots.
func ToDOT(entry trace.Entry, opts Options) string {
	keep := visibleSubtrees(entry, opts.OnlyVisible)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, l := range byZOrder(entry.Layers) {
		if !keep[l.ID] {
			continue
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(l.ID), strings.Join(fmtAttrs(l, fmtLabel(l, opts.Detailed)), ", "))
	}

	buf.WriteString("\n")
	var walk func(parent int32)
	walk = func(parent int32) {
		for _, c := range byZOrder(entry.Children(parent)) {
			if !keep[c.ID] {
				continue
			}
			fmt.Fprintf(&buf, "  %s -> %s;\n", nodeID(parent), nodeID(c.ID))
			walk(c.ID)
		}
	}
	for _, r := range byZOrder(entry.Roots()) {
		if keep[r.ID] {
			walk(r.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// byZOrder returns a copy of layers sorted by z-order path, lowest first.
func byZOrder(layers []trace.Layer) []trace.Layer {
	out := slices.Clone(layers)
	slices.SortStableFunc(out, func(a, b trace.Layer) int {
		return slices.Compare(a.ZOrderPath, b.ZOrderPath)
	})
	return out
}

func nodeID(id int32) string {
	return strconv.Quote("L" + strconv.Itoa(int(id)))
}

func fmtLabel(l trace.Layer, detailed bool) string {
	name := cmp.Or(l.Name, l.StableID)
	if !detailed {
		return name
	}
	path := make([]string, len(l.ZOrderPath))
	for i, z := range l.ZOrderPath {
		path[i] = strconv.Itoa(int(z))
	}
	b := l.Bounds
	return fmt.Sprintf("%s\nid: %d\nz: [%s]\nbounds: %g,%g %gx%g",
		name, l.ID, strings.Join(path, " "), b.Left, b.Top, b.Width(), b.Height())
}

func fmtAttrs(l trace.Layer, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if !l.IsVisible {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=grey30")
	}
	return attrs
}

// visibleSubtrees returns the layers to draw. With onlyVisible it keeps
// visible layers and all their ancestors.
func visibleSubtrees(entry trace.Entry, onlyVisible bool) map[int32]bool {
	keep := make(map[int32]bool, len(entry.Layers))
	if !onlyVisible {
		for _, l := range entry.Layers {
			keep[l.ID] = true
		}
		return keep
	}

	parent := make(map[int32]int32, len(entry.Layers))
	for _, l := range entry.Layers {
		parent[l.ID] = l.ParentID
	}
	for _, l := range entry.Layers {
		if !l.IsVisible {
			continue
		}
		for id := l.ID; !keep[id]; {
			keep[id] = true
			p, ok := parent[id]
			if !ok || p == trace.NoParent {
				break
			}
			if _, present := parent[p]; !present {
				break
			}
			id = p
		}
	}
	return keep
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based svg header with one whose
// width and height match the view box.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
