package hierarchy

import (
	"strings"
	"testing"

	"github.com/matzehuels/winscope/pkg/trace"
)

func testEntry() trace.Entry {
	return trace.Entry{Layers: []trace.Layer{
		{ID: 1, Name: "Display Root", ParentID: trace.NoParent, ZOrderPath: []int32{0}},
		{ID: 3, Name: "StatusBar", ParentID: 1, IsVisible: true, ZOrderPath: []int32{0, 5}},
		{ID: 2, Name: "Wallpaper", ParentID: 1, ZOrderPath: []int32{0, 1}},
		{ID: 4, Name: "Orphan", ParentID: 99, ZOrderPath: []int32{2}},
	}}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testEntry(), Options{})

	for _, want := range []string{
		"digraph G {",
		`"L1" [label="Display Root"`,
		`"L1" -> "L3";`,
		`"L1" -> "L2";`,
		`"L4" [label="Orphan"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"L99"`) {
		t.Error("DOT references a layer that is not in the snapshot")
	}

	// Siblings in z order, lowest first.
	if strings.Index(dot, `"L1" -> "L2"`) > strings.Index(dot, `"L1" -> "L3"`) {
		t.Error("siblings not in z order")
	}
	if !strings.Contains(dot, `"L2" [label="Wallpaper", style="rounded,filled,dashed"`) {
		t.Error("invisible layer not dashed")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testEntry(), Options{Detailed: true})
	if !strings.Contains(dot, `StatusBar\nid: 3\nz: [0 5]`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestToDOTOnlyVisible(t *testing.T) {
	dot := ToDOT(testEntry(), Options{OnlyVisible: true})
	if !strings.Contains(dot, `"L3"`) || !strings.Contains(dot, `"L1" -> "L3"`) {
		t.Errorf("visible layer or its ancestor dropped:\n%s", dot)
	}
	if strings.Contains(dot, `"L2"`) || strings.Contains(dot, `"L4"`) {
		t.Errorf("invisible leaves kept:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("normalizeViewBox(no viewBox) = %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(t.Context(), ToDOT(testEntry(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, "<svg") || !strings.Contains(s, "StatusBar") {
		t.Errorf("RenderSVG() output missing svg or labels: %.200s", s)
	}
}
