// Package timeline maps trace time onto screen pixels.
//
// The central type is [Transformer], an immutable affine mapping between a
// nanosecond [timestamp.TimeRange] and a [PixelRange]. A timeline view builds
// one Transformer per visible range and calls [Transformer.Transform] to place
// entry markers and the scrubber, and [Transformer.Untransform] to turn a drag
// position back into a timestamp.
//
// # Precision
//
// Timestamps are epoch nanoseconds (~1.7e18), far beyond the 2^53 range in
// which float64 is exact. Every time-domain subtraction is therefore done on
// int64 first; only the resulting offset is converted to float64 for the
// scale multiplication.
//
// # Rounding
//
// Untransform rounds to the nearest nanosecond, ties to even. Both range
// endpoints round-trip exactly.
//
// # Usage
//
//	tr, err := timeline.NewTransformer(
//	    timestamp.TimeRange{From: first, To: last},
//	    timeline.PixelRange{From: 0, To: 800},
//	)
//	if err != nil {
//	    return err // zero-width source range
//	}
//	x := tr.Transform(entry.Timestamp)
//	t := tr.Untransform(dragX)
package timeline

import (
	"math"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/timestamp"
)

// PixelRange is the destination interval of a [Transformer]. From need not be
// less than To; a right-to-left axis is expressed by From > To.
type PixelRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Width returns To - From.
func (r PixelRange) Width() float64 { return r.To - r.From }

// Transformer is an affine map between a time range and a pixel range.
// It is immutable after construction and safe for concurrent use.
type Transformer struct {
	from  timestamp.TimeRange
	to    PixelRange
	width float64 // from.To - from.From, computed exactly where possible
}

// NewTransformer returns a Transformer mapping from onto to.
//
// It fails with [errors.ErrCodeInvalidRange] when from has zero width, since
// no scale factor exists. Every other input, including reversed or degenerate
// pixel ranges, is accepted.
func NewTransformer(from timestamp.TimeRange, to PixelRange) (*Transformer, error) {
	if from.IsEmpty() {
		return nil, errors.New(errors.ErrCodeInvalidRange,
			"source time range has zero width (from == to == %d)", int64(from.From))
	}
	return &Transformer{
		from:  from,
		to:    to,
		width: sub(from.To, from.From),
	}, nil
}

// MustTransformer is like [NewTransformer] but panics on error.
func MustTransformer(from timestamp.TimeRange, to PixelRange) *Transformer {
	tr, err := NewTransformer(from, to)
	if err != nil {
		panic(err)
	}
	return tr
}

// From returns the source time range.
func (tr *Transformer) From() timestamp.TimeRange { return tr.from }

// To returns the destination pixel range.
func (tr *Transformer) To() PixelRange { return tr.to }

// Transform maps t to a pixel coordinate. Timestamps outside the source range
// extrapolate linearly; nothing is clamped.
func (tr *Transformer) Transform(t timestamp.Timestamp) float64 {
	switch t {
	case tr.from.From:
		return tr.to.From
	case tr.from.To:
		return tr.to.To
	}
	return tr.to.From + tr.to.Width()*sub(t, tr.from.From)/tr.width
}

// Untransform maps pixel coordinate p back to a timestamp, rounded to the
// nearest nanosecond (ties to even).
//
// A degenerate pixel range (From == To) has no inverse; every p then maps to
// the start of the source range. Non-finite p does the same.
func (tr *Transformer) Untransform(p float64) timestamp.Timestamp {
	span := tr.to.Width()
	if span == 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return tr.from.From
	}
	switch p {
	case tr.to.From:
		return tr.from.From
	case tr.to.To:
		return tr.from.To
	}
	off := math.RoundToEven((p - tr.to.From) * tr.width / span)
	return offset(tr.from.From, off)
}

// sub returns a - b as float64. The subtraction is exact in int64 unless it
// overflows, in which case it falls back to float arithmetic.
func sub(a, b timestamp.Timestamp) float64 {
	d := int64(a) - int64(b)
	if (a > b) != (d > 0) && a != b {
		return float64(a) - float64(b)
	}
	return float64(d)
}

// offset returns base + off, saturating at the int64 limits.
func offset(base timestamp.Timestamp, off float64) timestamp.Timestamp {
	const limit = float64(math.MaxInt64) // rounds up to 2^63
	if off >= limit || off < -limit {
		return saturate(float64(base) + off)
	}
	n := int64(off)
	sum := int64(base) + n
	if (n > 0 && sum < int64(base)) || (n < 0 && sum > int64(base)) {
		return saturate(float64(base) + off)
	}
	return timestamp.Timestamp(sum)
}

// saturate converts v to a timestamp, clamping values outside the int64
// range to its limits.
func saturate(v float64) timestamp.Timestamp {
	const limit = float64(math.MaxInt64) // 2^63
	switch {
	case v >= limit:
		return math.MaxInt64
	case v < -limit:
		return math.MinInt64
	}
	return timestamp.Timestamp(v)
}
