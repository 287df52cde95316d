package trace

import (
	"testing"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/timestamp"
)

func TestLayerLabelAndPackage(t *testing.T) {
	tests := []struct {
		name      string
		layer     Layer
		wantLabel string
		wantPkg   string
	}{
		{
			name:      "label with activity",
			layer:     Layer{Name: "ignored", Bounds: Bounds{Label: "com.android.launcher3/.Launcher#0"}},
			wantLabel: "com.android.launcher3/.Launcher#0",
			wantPkg:   "com.android.launcher3",
		},
		{
			name:      "falls back to name",
			layer:     Layer{Name: "StatusBar#12"},
			wantLabel: "StatusBar#12",
			wantPkg:   "StatusBar#12",
		},
		{
			name:      "leading slash",
			layer:     Layer{Name: "/odd"},
			wantLabel: "/odd",
			wantPkg:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.layer.Label(); got != tt.wantLabel {
				t.Errorf("Label() = %q, want %q", got, tt.wantLabel)
			}
			if got := tt.layer.PackageName(); got != tt.wantPkg {
				t.Errorf("PackageName() = %q, want %q", got, tt.wantPkg)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{Left: 10, Top: 20, Right: 110, Bottom: 220}
	if b.Width() != 100 || b.Height() != 200 {
		t.Errorf("Width/Height = %v/%v, want 100/200", b.Width(), b.Height())
	}
	if b.IsEmpty() {
		t.Error("IsEmpty() = true, want false")
	}
	if !(Bounds{Left: 5, Right: 5, Bottom: 10}).IsEmpty() {
		t.Error("zero-width bounds should be empty")
	}
}

func TestEntryHierarchy(t *testing.T) {
	e := Entry{Layers: []Layer{
		{ID: 1, ParentID: NoParent},
		{ID: 2, ParentID: 1},
		{ID: 3, ParentID: 1},
		{ID: 4, ParentID: 99}, // parent missing from snapshot
	}}

	roots := e.Roots()
	if len(roots) != 2 || roots[0].ID != 1 || roots[1].ID != 4 {
		t.Errorf("Roots() = %v, want ids [1 4]", roots)
	}

	children := e.Children(1)
	if len(children) != 2 || children[0].ID != 2 || children[1].ID != 3 {
		t.Errorf("Children(1) = %v, want ids [2 3]", children)
	}

	if l, ok := e.Layer(3); !ok || l.ParentID != 1 {
		t.Errorf("Layer(3) = %v, %v", l, ok)
	}
	if _, ok := e.Layer(42); ok {
		t.Error("Layer(42) ok = true, want false")
	}
}

func TestEntryValidate(t *testing.T) {
	ok := Entry{Layers: []Layer{{ID: 1}, {ID: 2}}}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	dup := Entry{Layers: []Layer{{ID: 1}, {ID: 1}}}
	err := dup.Validate()
	if !errors.Is(err, errors.ErrCodeInvalidTrace) {
		t.Errorf("Validate() = %v, want INVALID_TRACE", err)
	}
}

func newTrace(ts ...timestamp.Timestamp) *Trace {
	tr := &Trace{}
	for _, t := range ts {
		tr.Entries = append(tr.Entries, Entry{Timestamp: t})
	}
	return tr
}

func TestTraceEntryAt(t *testing.T) {
	tr := newTrace(100, 200, 200, 300)

	tests := []struct {
		ts   timestamp.Timestamp
		want int
	}{
		{50, 0},
		{100, 0},
		{150, 0},
		{200, 2},
		{250, 2},
		{300, 3},
		{1000, 3},
	}
	for _, tt := range tests {
		_, got, err := tr.EntryAt(tt.ts)
		if err != nil {
			t.Fatalf("EntryAt(%d) error: %v", tt.ts, err)
		}
		if got != tt.want {
			t.Errorf("EntryAt(%d) = %d, want %d", tt.ts, got, tt.want)
		}
	}

	if _, _, err := newTrace().EntryAt(0); !errors.Is(err, errors.ErrCodeEntryNotFound) {
		t.Errorf("EntryAt on empty trace = %v, want ENTRY_NOT_FOUND", err)
	}
}

func TestTraceEntry(t *testing.T) {
	tr := newTrace(1, 2)
	if e, err := tr.Entry(1); err != nil || e.Timestamp != 2 {
		t.Errorf("Entry(1) = %v, %v", e, err)
	}
	for _, i := range []int{-1, 2} {
		if _, err := tr.Entry(i); !errors.Is(err, errors.ErrCodeEntryNotFound) {
			t.Errorf("Entry(%d) error = %v, want ENTRY_NOT_FOUND", i, err)
		}
	}
}

func TestTraceRangeAndSort(t *testing.T) {
	tr := newTrace(300, 100, 200)
	if err := tr.Validate(); !errors.Is(err, errors.ErrCodeInvalidTrace) {
		t.Errorf("Validate() on unsorted trace = %v, want INVALID_TRACE", err)
	}

	tr.Sort()
	if err := tr.Validate(); err != nil {
		t.Errorf("Validate() after Sort error: %v", err)
	}
	if got := tr.Range(); got != (timestamp.TimeRange{From: 100, To: 300}) {
		t.Errorf("Range() = %v, want {100 300}", got)
	}
	if got := tr.Timestamps(); len(got) != 3 || got[0] != 100 || got[2] != 300 {
		t.Errorf("Timestamps() = %v", got)
	}
	if got := newTrace().Range(); !got.IsEmpty() {
		t.Errorf("Range() of empty trace = %v, want empty", got)
	}
}

func TestTraceView(t *testing.T) {
	tests := []struct {
		name string
		tr   *Trace
		want timestamp.TimeRange
	}{
		{"span", newTrace(100, 200, 300), timestamp.TimeRange{From: 100, To: 300}},
		{"single entry", newTrace(50), timestamp.TimeRange{From: 50, To: 51}},
		{"shared timestamp", newTrace(7, 7), timestamp.TimeRange{From: 7, To: 8}},
		{"empty", newTrace(), timestamp.TimeRange{From: 0, To: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.View(); got != tt.want {
				t.Errorf("View() = %v, want %v", got, tt.want)
			}
		})
	}
}
