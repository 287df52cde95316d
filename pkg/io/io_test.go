package io

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/geometry"
	"github.com/matzehuels/winscope/pkg/timestamp"
	"github.com/matzehuels/winscope/pkg/trace"
)

const sample = `{
  "kind": "elapsed",
  "entries": [
    {
      "timestamp": "9007199254740993",
      "layers": [
        {"id": 1, "name": "Display Root", "zOrderPath": [0]},
        {"id": 2, "stableId": "2 app", "name": "com.example/.Main#0", "parent": 1,
         "visible": true, "zOrderPath": [0, 1],
         "bounds": {"left": 0, "top": 0, "right": 100, "bottom": 200, "cornerRadius": 8,
                    "transform": {"dsdx": 2, "dtdx": 0, "dsdy": 0, "dtdy": 2, "tx": 5, "ty": 6}},
         "transform": {"dsdx": 1, "dtdx": 0, "dsdy": 0, "dtdy": 1, "tx": 10, "ty": 20}}
      ],
      "displays": [{"id": "0", "name": "Built-in", "layerStack": 0, "size": {"width": 1080, "height": 2400}}]
    },
    {"timestamp": 1000, "layers": [], "displays": []}
  ]
}`

func TestReadTrace(t *testing.T) {
	tr, err := ReadTrace(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ReadTrace() error: %v", err)
	}
	if tr.Kind != timestamp.KindElapsed {
		t.Errorf("Kind = %v, want elapsed", tr.Kind)
	}
	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}
	if tr.Entries[0].Timestamp != 1000 {
		t.Errorf("entries not sorted: first timestamp = %d", tr.Entries[0].Timestamp)
	}
	if got := tr.Entries[1].Timestamp; got != 9007199254740993 {
		t.Errorf("Timestamp = %d, want 9007199254740993", got)
	}

	e := tr.Entries[1]
	root, _ := e.Layer(1)
	if !root.IsRoot() || root.Transform != matrix.Identity {
		t.Errorf("root layer = %+v", root)
	}
	if root.StableID != "1 Display Root" {
		t.Errorf("default StableID = %q", root.StableID)
	}

	app, _ := e.Layer(2)
	if app.ParentID != 1 || app.StableID != "2 app" || !app.IsVisible {
		t.Errorf("app layer = %+v", app)
	}
	if want := (matrix.Matrix{1, 0, 0, 1, 10, 20}); app.Transform != want {
		t.Errorf("Transform = %v, want %v", app.Transform, want)
	}
	if app.Bounds.Transform == nil || *app.Bounds.Transform != (matrix.Matrix{2, 0, 0, 2, 5, 6}) {
		t.Errorf("Bounds.Transform = %v", app.Bounds.Transform)
	}
	if len(e.Displays) != 1 || e.Displays[0].Size.Width != 1080 {
		t.Errorf("Displays = %+v", e.Displays)
	}
}

func TestReadTraceErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"entries": [`},
		{"bad kind", `{"kind": "boot", "entries": []}`},
		{"bad timestamp", `{"entries": [{"timestamp": "soon"}]}`},
		{"duplicate layer", `{"entries": [{"timestamp": 1, "layers": [{"id": 4}, {"id": 4}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTrace(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ReadTrace() error = nil")
			}
			if !errors.Is(err, errors.ErrCodeInvalidTrace) {
				t.Errorf("ReadTrace() code = %s, want INVALID_TRACE", errors.GetCode(err))
			}
		})
	}
}

func TestImportTraceMissingFile(t *testing.T) {
	_, err := ImportTrace(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportTrace() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestWriteTraceRoundTrip(t *testing.T) {
	orig, err := ReadTrace(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "trace.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteTrace(f, orig); err != nil {
		t.Fatalf("WriteTrace() error: %v", err)
	}
	f.Close()

	got, err := ImportTrace(path)
	if err != nil {
		t.Fatalf("ImportTrace() error: %v", err)
	}
	if got.Kind != orig.Kind || got.Len() != orig.Len() {
		t.Fatalf("round trip = %+v", got)
	}
	a, _ := orig.Entries[1].Layer(2)
	b, _ := got.Entries[1].Layer(2)
	if a.Transform != b.Transform || *a.Bounds.Transform != *b.Bounds.Transform || a.ParentID != b.ParentID {
		t.Errorf("layer changed in round trip: %+v vs %+v", a, b)
	}
	if got.Entries[1].Timestamp != orig.Entries[1].Timestamp {
		t.Errorf("Timestamp = %d, want %d", got.Entries[1].Timestamp, orig.Entries[1].Timestamp)
	}
}

func TestWriteRectanglesJSON(t *testing.T) {
	entry := trace.Entry{
		Layers:   []trace.Layer{{ID: 1, StableID: "a", IsVisible: true, Transform: matrix.Identity}},
		Displays: []trace.Display{{ID: "0", Size: trace.Size{Width: 10, Height: 20}}},
	}
	rects := geometry.DeriveRectangles(entry, geometry.Options{}, nil)

	var buf bytes.Buffer
	if err := WriteRectanglesJSON(&buf, rects); err != nil {
		t.Fatalf("WriteRectanglesJSON() error: %v", err)
	}

	var out []Rect
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "Display - 0" {
		t.Fatalf("rects = %+v", out)
	}
	if out[1].BottomRight != (Point{X: 10, Y: 20}) || !out[1].IsDisplay {
		t.Errorf("display rect = %+v", out[1])
	}
	if out[0].Transform != [6]float64(matrix.Identity) {
		t.Errorf("Transform = %v, want identity", out[0].Transform)
	}
}

func TestExportRectanglesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rects.json")
	if err := ExportRectanglesJSON(path, nil); err != nil {
		t.Fatalf("ExportRectanglesJSON() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty export = %q, want []", data)
	}
}

func TestReadRectanglesJSON(t *testing.T) {
	rects := []geometry.Rectangle{{
		ID: "a", Label: "A", Transform: matrix.Matrix{1, 0, 0, 1, 3, 4},
		IsVisible: true, IsClickable: true, HasContent: true, CornerRadius: 2,
	}}
	var buf bytes.Buffer
	if err := WriteRectanglesJSON(&buf, rects); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRectanglesJSON(&buf)
	if err != nil {
		t.Fatalf("ReadRectanglesJSON() error: %v", err)
	}
	if len(got) != 1 || got[0] != rects[0] {
		t.Errorf("ReadRectanglesJSON() = %+v, want %+v", got, rects)
	}
}
