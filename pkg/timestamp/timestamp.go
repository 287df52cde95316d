// Package timestamp defines the nanosecond instants that trace entries are
// keyed by, together with the time ranges a timeline displays.
//
// A [Timestamp] is an exact integer count of nanoseconds. All arithmetic
// between timestamps stays in the integer domain; callers convert to float64
// only for the final pixel math (see the timeline package).
//
// Two clocks are in use on Android traces:
//   - [KindReal]: wall-clock nanoseconds since the Unix epoch
//   - [KindElapsed]: nanoseconds since boot
//
// The kind only affects formatting and parsing; arithmetic is identical.
package timestamp

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/winscope/pkg/errors"
)

// Timestamp is an instant in nanoseconds.
type Timestamp int64

// String returns the decimal nanosecond value.
func (t Timestamp) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// Kind identifies the clock a timestamp was recorded against.
type Kind int

const (
	KindReal Kind = iota
	KindElapsed
)

// String returns the lowercase name used in trace files.
func (k Kind) String() string {
	switch k {
	case KindElapsed:
		return "elapsed"
	default:
		return "real"
	}
}

// ParseKind parses "real" or "elapsed". The empty string means real.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "real":
		return KindReal, nil
	case "elapsed":
		return KindElapsed, nil
	}
	return KindReal, errors.New(errors.ErrCodeInvalidTimestamp, "unknown timestamp kind %q (must be 'real' or 'elapsed')", s)
}

// =============================================================================
// Ranges
// =============================================================================

// TimeRange is an interval of instants. From <= To is expected but not
// required; reversed ranges yield negative widths rather than errors.
type TimeRange struct {
	From Timestamp `json:"from"`
	To   Timestamp `json:"to"`
}

// Width returns To - From in nanoseconds. Ranges wider than math.MaxInt64
// (possible only when From and To have opposite signs) wrap; use Midpoint and
// Fraction for such ranges.
func (r TimeRange) Width() int64 { return int64(r.To - r.From) }

// span returns To - From as float64 without int64 wraparound.
func (r TimeRange) span() float64 {
	d := int64(r.To) - int64(r.From)
	if (r.To > r.From) != (d > 0) && r.To != r.From {
		return float64(r.To) - float64(r.From)
	}
	return float64(d)
}

// IsEmpty reports whether the range has zero width.
func (r TimeRange) IsEmpty() bool { return r.From == r.To }

// Contains reports whether t lies within the closed interval, regardless of
// the orientation of the range.
func (r TimeRange) Contains(t Timestamp) bool {
	lo, hi := r.From, r.To
	if lo > hi {
		lo, hi = hi, lo
	}
	return t >= lo && t <= hi
}

// Midpoint returns the instant halfway between From and To, truncated toward From.
func (r TimeRange) Midpoint() Timestamp {
	// The unsigned distance is exact for every pair of int64 values.
	if r.To >= r.From {
		return r.From + Timestamp((uint64(r.To)-uint64(r.From))/2)
	}
	return r.From - Timestamp((uint64(r.From)-uint64(r.To))/2)
}

// Fraction returns the instant at fraction f of the range, rounded to the
// nearest nanosecond (ties to even). f outside [0, 1] extrapolates, clamping
// at the int64 limits.
func (r TimeRange) Fraction(f float64) Timestamp {
	const limit = float64(math.MaxInt64) // 2^63
	off := math.RoundToEven(f * r.span())
	if off > -limit && off < limit {
		n := Timestamp(off)
		sum := r.From + n
		if (n >= 0) == (sum >= r.From) {
			return sum
		}
	}
	switch v := float64(r.From) + off; {
	case v >= limit:
		return math.MaxInt64
	case v < -limit:
		return math.MinInt64
	default:
		return Timestamp(v)
	}
}

// =============================================================================
// Formatting
// =============================================================================

const realLayout = "2006-01-02T15:04:05.000000000"

// Format renders t according to its clock kind.
func Format(t Timestamp, kind Kind) string {
	if kind == KindElapsed {
		return FormatElapsed(t)
	}
	return FormatReal(t)
}

// FormatReal renders a wall-clock timestamp in UTC with nanosecond precision,
// e.g. "2022-11-21T18:05:09.777144978".
func FormatReal(t Timestamp) string {
	return time.Unix(0, int64(t)).UTC().Format(realLayout)
}

type unit struct {
	suffix string
	ns     int64
}

var elapsedUnits = []unit{
	{"d", int64(24 * time.Hour)},
	{"h", int64(time.Hour)},
	{"m", int64(time.Minute)},
	{"s", int64(time.Second)},
	{"ms", int64(time.Millisecond)},
	{"ns", 1},
}

// FormatElapsed renders a since-boot timestamp as a compact unit string,
// e.g. "1h2m3s4ms5ns". Zero units are omitted; zero renders as "0ns".
func FormatElapsed(t Timestamp) string {
	if t == 0 {
		return "0ns"
	}
	var b strings.Builder
	n := int64(t)
	if n < 0 {
		b.WriteByte('-')
		if n == math.MinInt64 {
			// -MinInt64 overflows; emit the single unrepresentable value verbatim.
			b.WriteString(strconv.FormatUint(uint64(math.MaxInt64)+1, 10))
			b.WriteString("ns")
			return b.String()
		}
		n = -n
	}
	for _, u := range elapsedUnits {
		if q := n / u.ns; q > 0 {
			b.WriteString(strconv.FormatInt(q, 10))
			b.WriteString(u.suffix)
			n -= q * u.ns
		}
	}
	return b.String()
}

// =============================================================================
// Parsing
// =============================================================================

var elapsedRe = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?(?:(\d+)ms)?(?:(\d+)ns)?$`)

// Parse accepts a plain integer nanosecond count, a real-time string in the
// form produced by [FormatReal] (fraction optional), or an elapsed string in
// the form produced by [FormatElapsed].
func Parse(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New(errors.ErrCodeInvalidTimestamp, "timestamp cannot be empty")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Timestamp(n), nil
	}

	if strings.Contains(s, "T") {
		tm, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeInvalidTimestamp, err, "invalid real timestamp %q", s)
		}
		return Timestamp(tm.UnixNano()), nil
	}

	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	m := elapsedRe.FindStringSubmatch(body)
	if m == nil || body == "" {
		return 0, errors.New(errors.ErrCodeInvalidTimestamp, "invalid timestamp %q", s)
	}

	var total int64
	for i, u := range elapsedUnits {
		if m[i+1] == "" {
			continue
		}
		q, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil || q > math.MaxInt64/u.ns || total > math.MaxInt64-q*u.ns {
			return 0, errors.New(errors.ErrCodeInvalidTimestamp, "timestamp %q out of range", s)
		}
		total += q * u.ns
	}
	if neg {
		total = -total
	}
	return Timestamp(total), nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and
// package-level constants.
func MustParse(s string) Timestamp {
	t, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("timestamp: %v", err))
	}
	return t
}
