package timeline

import (
	"slices"
	"sort"

	"github.com/matzehuels/winscope/pkg/timestamp"
)

// Positions returns the pixel coordinate of each timestamp under tr, in input
// order. It is used to draw entry markers on a timeline row.
func Positions(tr *Transformer, ts []timestamp.Timestamp) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = tr.Transform(t)
	}
	return out
}

// Nearest returns the index of the element of sorted ts closest to t.
// When t is equidistant from two entries the earlier one wins.
// It returns false when ts is empty.
func Nearest(ts []timestamp.Timestamp, t timestamp.Timestamp) (int, bool) {
	if len(ts) == 0 {
		return 0, false
	}
	i := sort.Search(len(ts), func(i int) bool { return ts[i] >= t })
	switch {
	case i == 0:
		return 0, true
	case i == len(ts):
		return len(ts) - 1, true
	}
	before, after := sub(t, ts[i-1]), sub(ts[i], t)
	if before <= after {
		return i - 1, true
	}
	return i, true
}

// Bounds returns the range spanned by ts. ts need not be sorted.
// An empty slice yields the zero range.
func Bounds(ts []timestamp.Timestamp) timestamp.TimeRange {
	if len(ts) == 0 {
		return timestamp.TimeRange{}
	}
	return timestamp.TimeRange{From: slices.Min(ts), To: slices.Max(ts)}
}

// Zoom narrows (factor > 1) or widens (factor < 1) view around center while
// keeping center at the same relative position. The result never extends
// past full and is never narrower than minWidth nanoseconds.
func Zoom(view, full timestamp.TimeRange, center timestamp.Timestamp, factor float64, minWidth int64) timestamp.TimeRange {
	if factor <= 0 || view.Width() <= 0 {
		return view
	}
	if minWidth < 1 {
		minWidth = 1
	}

	width := float64(view.Width()) / factor
	if width < float64(minWidth) {
		width = float64(minWidth)
	}
	if width >= float64(full.Width()) {
		return full
	}

	frac := sub(center, view.From) / float64(view.Width())
	from := offset(center, -frac*width)
	return clampView(timestamp.TimeRange{From: from, To: offset(from, width)}, full)
}

// Pan shifts view by delta nanoseconds without leaving full.
func Pan(view, full timestamp.TimeRange, delta int64) timestamp.TimeRange {
	moved := timestamp.TimeRange{
		From: offset(view.From, float64(delta)),
		To:   offset(view.To, float64(delta)),
	}
	return clampView(moved, full)
}

// clampView slides view back inside full, preserving its width when possible.
func clampView(view, full timestamp.TimeRange) timestamp.TimeRange {
	w := view.Width()
	if w >= full.Width() {
		return full
	}
	if view.From < full.From {
		return timestamp.TimeRange{From: full.From, To: full.From + timestamp.Timestamp(w)}
	}
	if view.To > full.To {
		return timestamp.TimeRange{From: full.To - timestamp.Timestamp(w), To: full.To}
	}
	return view
}
