// Package trace defines the pre-parsed SurfaceFlinger snapshot model that the
// geometry and timeline packages operate on.
//
// A [Trace] is an ordered sequence of [Entry] snapshots. Each entry holds the
// flattened layer hierarchy and the displays that were active at that
// instant. Values are treated as immutable once loaded: the derivation code
// never mutates an Entry, so a Trace may be shared between goroutines.
package trace

import (
	"cmp"
	"slices"
	"strings"

	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/timestamp"
)

// NoParent is the ParentID of a root layer.
const NoParent int32 = -1

// Size is a width/height pair in display pixels.
type Size struct {
	Width  float64
	Height float64
}

// Bounds is the on-screen rectangle of a layer.
type Bounds struct {
	Left, Top, Right, Bottom float64

	// Transform overrides the layer transform for this rectangle when set.
	Transform *matrix.Matrix

	CornerRadius float64
	Label        string
}

// Width returns the horizontal extent of the bounds.
func (b Bounds) Width() float64 { return b.Right - b.Left }

// Height returns the vertical extent of the bounds.
func (b Bounds) Height() float64 { return b.Bottom - b.Top }

// IsEmpty reports whether the bounds enclose no area.
func (b Bounds) IsEmpty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// Layer is one node of a flattened hierarchy snapshot.
type Layer struct {
	ID       int32
	StableID string
	Name     string
	ParentID int32
	StackID  int64

	IsVisible bool

	// ZOrderPath lists the z value of this layer and each of its ancestors,
	// outermost first. Comparing paths component by component yields the
	// global stacking order.
	ZOrderPath []int32

	// OccludedBy holds the IDs of layers that cover this one.
	OccludedBy []int32

	Bounds    Bounds
	Transform matrix.Matrix
}

// Label returns the rectangle label, falling back to the layer name.
func (l Layer) Label() string {
	if l.Bounds.Label != "" {
		return l.Bounds.Label
	}
	return l.Name
}

// PackageName returns the part of the label before the first "/", which for
// app windows is the owning package, e.g. "com.android.launcher3" for
// "com.android.launcher3/.Launcher#0".
func (l Layer) PackageName() string {
	label := l.Label()
	if i := strings.IndexByte(label, '/'); i >= 0 {
		return label[:i]
	}
	return label
}

// IsRoot reports whether the layer has no parent.
func (l Layer) IsRoot() bool { return l.ParentID == NoParent }

// Display describes a physical or virtual screen.
type Display struct {
	ID           string
	Name         string
	LayerStackID int64
	Size         Size
	IsVirtual    bool
	Transform    *matrix.Matrix
}

// Entry is a single point-in-time snapshot.
type Entry struct {
	Timestamp timestamp.Timestamp
	Layers    []Layer
	Displays  []Display
}

// Layer returns the layer with the given ID.
func (e *Entry) Layer(id int32) (Layer, bool) {
	for _, l := range e.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return Layer{}, false
}

// Roots returns the layers without a parent present in the snapshot, in
// snapshot order.
func (e *Entry) Roots() []Layer {
	ids := make(map[int32]bool, len(e.Layers))
	for _, l := range e.Layers {
		ids[l.ID] = true
	}
	var roots []Layer
	for _, l := range e.Layers {
		if l.IsRoot() || !ids[l.ParentID] {
			roots = append(roots, l)
		}
	}
	return roots
}

// Children returns the direct children of the layer with the given ID, in
// snapshot order.
func (e *Entry) Children(id int32) []Layer {
	var out []Layer
	for _, l := range e.Layers {
		if l.ParentID == id && l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

// Validate checks the structural invariants the geometry code relies on:
// layer IDs are unique within the snapshot.
func (e *Entry) Validate() error {
	seen := make(map[int32]bool, len(e.Layers))
	for _, l := range e.Layers {
		if seen[l.ID] {
			return errors.New(errors.ErrCodeInvalidTrace, "duplicate layer id %d at %d", l.ID, int64(e.Timestamp))
		}
		seen[l.ID] = true
	}
	return nil
}

// Trace is a time-ordered sequence of snapshots.
type Trace struct {
	Kind    timestamp.Kind
	Entries []Entry
}

// Len returns the number of entries.
func (t *Trace) Len() int { return len(t.Entries) }

// Timestamps returns the timestamp of every entry, in order.
func (t *Trace) Timestamps() []timestamp.Timestamp {
	out := make([]timestamp.Timestamp, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = e.Timestamp
	}
	return out
}

// Range returns the span from the first to the last entry.
// An empty trace yields the zero range.
func (t *Trace) Range() timestamp.TimeRange {
	if len(t.Entries) == 0 {
		return timestamp.TimeRange{}
	}
	return timestamp.TimeRange{From: t.Entries[0].Timestamp, To: t.Entries[len(t.Entries)-1].Timestamp}
}

// View returns Range widened to at least one nanosecond, so that a trace
// whose entries share a timestamp can still back a timeline.
func (t *Trace) View() timestamp.TimeRange {
	r := t.Range()
	if r.IsEmpty() {
		r.To = r.From + 1
	}
	return r
}

// Entry returns the entry at index i.
func (t *Trace) Entry(i int) (*Entry, error) {
	if err := errors.ValidateIndex(i, len(t.Entries)); err != nil {
		return nil, err
	}
	return &t.Entries[i], nil
}

// EntryAt returns the entry in effect at ts: the last entry whose timestamp
// is not after ts. Instants before the first entry resolve to the first entry.
func (t *Trace) EntryAt(ts timestamp.Timestamp) (*Entry, int, error) {
	if len(t.Entries) == 0 {
		return nil, -1, errors.New(errors.ErrCodeEntryNotFound, "trace has no entries")
	}
	i, found := slices.BinarySearchFunc(t.Entries, ts, func(e Entry, ts timestamp.Timestamp) int {
		return cmp.Compare(e.Timestamp, ts)
	})
	if !found {
		i--
	}
	// Equal timestamps: prefer the last one.
	for i+1 < len(t.Entries) && t.Entries[i+1].Timestamp == ts {
		i++
	}
	i = max(i, 0)
	return &t.Entries[i], i, nil
}

// Sort orders entries by timestamp, keeping the relative order of entries
// with equal timestamps.
func (t *Trace) Sort() {
	slices.SortStableFunc(t.Entries, func(a, b Entry) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
}

// Validate checks every entry and that entries are in timestamp order.
func (t *Trace) Validate() error {
	for i := range t.Entries {
		if err := t.Entries[i].Validate(); err != nil {
			return err
		}
		if i > 0 && t.Entries[i].Timestamp < t.Entries[i-1].Timestamp {
			return errors.New(errors.ErrCodeInvalidTrace, "entry %d is out of order", i)
		}
	}
	return nil
}
