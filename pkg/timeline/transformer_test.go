package timeline

import (
	"math"
	"sync"
	"testing"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/timestamp"
)

const epoch = timestamp.Timestamp(1669053909777144978)

var transformerCases = []struct {
	name string
	from timestamp.TimeRange
	to   PixelRange
}{
	{"small", timestamp.TimeRange{From: 10, To: 30}, PixelRange{From: 0, To: 100}},
	{"epoch scale", timestamp.TimeRange{From: epoch, To: epoch + 1_000_000_000}, PixelRange{From: 0, To: 800}},
	{"offset pixels", timestamp.TimeRange{From: epoch, To: epoch + 7_919}, PixelRange{From: 17.5, To: 913.25}},
	{"reversed pixels", timestamp.TimeRange{From: 0, To: 1_000_000}, PixelRange{From: 640, To: 0}},
	{"reversed time", timestamp.TimeRange{From: epoch + 5_000, To: epoch}, PixelRange{From: 0, To: 1}},
	{"negative", timestamp.TimeRange{From: -500, To: 1_500}, PixelRange{From: -10, To: 10}},
}

func TestNewTransformerZeroWidth(t *testing.T) {
	for _, ts := range []timestamp.Timestamp{0, epoch, -1} {
		tr, err := NewTransformer(timestamp.TimeRange{From: ts, To: ts}, PixelRange{From: 0, To: 100})
		if err == nil {
			t.Fatalf("NewTransformer(%d..%d) error = nil, want error", ts, ts)
		}
		if tr != nil {
			t.Errorf("NewTransformer(%d..%d) returned non-nil transformer", ts, ts)
		}
		if !errors.Is(err, errors.ErrCodeInvalidRange) {
			t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidRange)
		}
	}
}

func TestNewTransformerDegeneratePixels(t *testing.T) {
	if _, err := NewTransformer(timestamp.TimeRange{From: 0, To: 10}, PixelRange{From: 5, To: 5}); err != nil {
		t.Errorf("degenerate pixel range should be accepted: %v", err)
	}
}

func TestTransformEndpoints(t *testing.T) {
	for _, tc := range transformerCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := MustTransformer(tc.from, tc.to)
			if got := tr.Transform(tc.from.From); got != tc.to.From {
				t.Errorf("Transform(from) = %v, want %v", got, tc.to.From)
			}
			if got := tr.Transform(tc.from.To); got != tc.to.To {
				t.Errorf("Transform(to) = %v, want %v", got, tc.to.To)
			}
		})
	}
}

func TestTransformFractions(t *testing.T) {
	for _, tc := range transformerCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := MustTransformer(tc.from, tc.to)
			for _, f := range []float64{0.5, 0.25, 0.05} {
				ts := tc.from.Fraction(f)
				// The timestamp was rounded to a whole nanosecond, so the exact
				// fraction it represents may differ slightly from f.
				exact := float64(ts-tc.from.From) / float64(tc.from.Width())
				want := tc.to.From + tc.to.Width()*exact
				if got := tr.Transform(ts); !approx(got, want) {
					t.Errorf("Transform(%v of range) = %v, want %v", f, got, want)
				}
			}
		})
	}
}

func TestTransformMidpoint(t *testing.T) {
	tr := MustTransformer(timestamp.TimeRange{From: epoch, To: epoch + 2_000}, PixelRange{From: 100, To: 300})
	if got := tr.Transform(epoch + 1_000); got != 200 {
		t.Errorf("Transform(midpoint) = %v, want 200", got)
	}
	if got := tr.Transform(epoch + 500); got != 150 {
		t.Errorf("Transform(quarter) = %v, want 150", got)
	}
	if got := tr.Transform(epoch + 100); got != 110 {
		t.Errorf("Transform(twentieth) = %v, want 110", got)
	}
}

func TestTransformExtrapolates(t *testing.T) {
	from := timestamp.TimeRange{From: epoch, To: epoch + 1_000_000}
	tr := MustTransformer(from, PixelRange{From: 0, To: 800})

	before := tr.Transform(epoch - 500_000)
	if before != -400 {
		t.Errorf("Transform(from - range/2) = %v, want -400", before)
	}
	after := tr.Transform(epoch + 1_500_000)
	if after != 1200 {
		t.Errorf("Transform(to + range/2) = %v, want 1200", after)
	}
}

func TestUntransformEndpointsRoundTrip(t *testing.T) {
	for _, tc := range transformerCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := MustTransformer(tc.from, tc.to)
			for _, ts := range []timestamp.Timestamp{tc.from.From, tc.from.To} {
				if got := tr.Untransform(tr.Transform(ts)); got != ts {
					t.Errorf("Untransform(Transform(%d)) = %d", ts, got)
				}
			}
		})
	}
}

func TestUntransformInteriorRoundTrip(t *testing.T) {
	for _, tc := range transformerCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := MustTransformer(tc.from, tc.to)
			for _, f := range []float64{0.5, 0.25, 0.05, 0.999, -0.5, 1.5} {
				ts := tc.from.Fraction(f)
				got := tr.Untransform(tr.Transform(ts))
				if d := int64(got - ts); d < -1 || d > 1 {
					t.Errorf("Untransform(Transform(%d)) = %d, off by %d ns", ts, got, d)
				}
			}
		})
	}
}

func TestUntransformPixels(t *testing.T) {
	tr := MustTransformer(timestamp.TimeRange{From: epoch, To: epoch + 1_000}, PixelRange{From: 0, To: 100})

	tests := []struct {
		px   float64
		want timestamp.Timestamp
	}{
		{0, epoch},
		{100, epoch + 1_000},
		{50, epoch + 500},
		{0.05, epoch},       // 0.5ns ties to even
		{0.15, epoch + 2},   // 1.5ns ties to even
		{-50, epoch - 500},  // extrapolated before
		{150, epoch + 1500}, // extrapolated after
	}
	for _, tt := range tests {
		if got := tr.Untransform(tt.px); got != tt.want {
			t.Errorf("Untransform(%v) = %d, want %d", tt.px, got, tt.want)
		}
	}
}

func TestUntransformDegenerate(t *testing.T) {
	tr := MustTransformer(timestamp.TimeRange{From: 10, To: 20}, PixelRange{From: 5, To: 5})
	for _, px := range []float64{5, 0, 100} {
		if got := tr.Untransform(px); got != 10 {
			t.Errorf("Untransform(%v) on degenerate pixel range = %d, want 10", px, got)
		}
	}
	if got := tr.Transform(15); got != 5 {
		t.Errorf("Transform(15) on degenerate pixel range = %v, want 5", got)
	}

	tr = MustTransformer(timestamp.TimeRange{From: 10, To: 20}, PixelRange{From: 0, To: 100})
	for _, px := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := tr.Untransform(px); got != 10 {
			t.Errorf("Untransform(%v) = %d, want 10", px, got)
		}
	}
}

func TestUntransformSaturates(t *testing.T) {
	tr := MustTransformer(timestamp.TimeRange{From: 0, To: math.MaxInt64 / 2}, PixelRange{From: 0, To: 1})
	if got := tr.Untransform(10); got != math.MaxInt64 {
		t.Errorf("Untransform(10) = %d, want MaxInt64", got)
	}
	if got := tr.Untransform(-10); got != math.MinInt64 {
		t.Errorf("Untransform(-10) = %d, want MinInt64", got)
	}
}

func TestUntransformFarExtrapolationInRange(t *testing.T) {
	// The offset alone exceeds int64 but base + offset does not.
	tests := []struct {
		name string
		from timestamp.TimeRange
		to   PixelRange
		p    float64
		want float64
	}{
		{
			name: "before recent trace",
			from: timestamp.TimeRange{From: 1_700_000_000_000_000_000, To: 1_700_000_003_000_000_000},
			to:   PixelRange{From: 0, To: 1000},
			p:    -3.1e12,
			want: -7.6e18,
		},
		{
			name: "middle of full range",
			from: timestamp.TimeRange{From: math.MinInt64, To: math.MaxInt64},
			to:   PixelRange{From: 0, To: 1},
			p:    0.5,
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustTransformer(tt.from, tt.to).Untransform(tt.p)
			if got == math.MinInt64 || got == math.MaxInt64 {
				t.Fatalf("Untransform(%v) = %d, want about %v", tt.p, got, tt.want)
			}
			if !approx(float64(got), tt.want) {
				t.Errorf("Untransform(%v) = %d, want about %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestTransformWideRange(t *testing.T) {
	// The range width overflows int64; the transformer must still be monotonic.
	tr := MustTransformer(timestamp.TimeRange{From: math.MinInt64, To: math.MaxInt64}, PixelRange{From: 0, To: 1})
	lo, mid, hi := tr.Transform(-1<<62), tr.Transform(0), tr.Transform(1<<62)
	if !(lo < mid && mid < hi) {
		t.Errorf("Transform not monotonic: %v, %v, %v", lo, mid, hi)
	}
	if !approx(mid, 0.5) {
		t.Errorf("Transform(0) = %v, want 0.5", mid)
	}
}

func TestTransformerConcurrentUse(t *testing.T) {
	tr := MustTransformer(timestamp.TimeRange{From: epoch, To: epoch + 1_000_000}, PixelRange{From: 0, To: 1000})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				ts := epoch + timestamp.Timestamp(i*1000+j)
				if got := tr.Untransform(tr.Transform(ts)); got != ts {
					t.Errorf("round trip %d = %d", ts, got)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
