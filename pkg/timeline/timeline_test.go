package timeline

import (
	"slices"
	"testing"

	"github.com/matzehuels/winscope/pkg/timestamp"
)

func TestPositions(t *testing.T) {
	tr := MustTransformer(timestamp.TimeRange{From: 100, To: 200}, PixelRange{From: 0, To: 1000})
	got := Positions(tr, []timestamp.Timestamp{100, 150, 200, 250})
	want := []float64{0, 500, 1000, 1500}
	if !slices.Equal(got, want) {
		t.Errorf("Positions() = %v, want %v", got, want)
	}
	if got := Positions(tr, nil); len(got) != 0 {
		t.Errorf("Positions(nil) = %v, want empty", got)
	}
}

func TestNearest(t *testing.T) {
	ts := []timestamp.Timestamp{10, 20, 40}

	tests := []struct {
		name string
		t    timestamp.Timestamp
		want int
	}{
		{"before first", 0, 0},
		{"exact first", 10, 0},
		{"closer to first", 14, 0},
		{"tie goes earlier", 15, 0},
		{"closer to second", 16, 1},
		{"exact middle", 20, 1},
		{"tie between second and third", 30, 1},
		{"closer to third", 31, 2},
		{"after last", 1000, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Nearest(ts, tt.t)
			if !ok {
				t.Fatal("Nearest() ok = false, want true")
			}
			if got != tt.want {
				t.Errorf("Nearest(%d) = %d, want %d", tt.t, got, tt.want)
			}
		})
	}

	if _, ok := Nearest(nil, 5); ok {
		t.Error("Nearest(nil) ok = true, want false")
	}
}

func TestBounds(t *testing.T) {
	got := Bounds([]timestamp.Timestamp{30, 10, 20})
	if got != (timestamp.TimeRange{From: 10, To: 30}) {
		t.Errorf("Bounds() = %v, want {10 30}", got)
	}
	if got := Bounds(nil); got != (timestamp.TimeRange{}) {
		t.Errorf("Bounds(nil) = %v, want zero range", got)
	}
}

func TestZoom(t *testing.T) {
	full := timestamp.TimeRange{From: 0, To: 1000}

	tests := []struct {
		name   string
		view   timestamp.TimeRange
		center timestamp.Timestamp
		factor float64
		want   timestamp.TimeRange
	}{
		{"zoom in centered", full, 500, 2, timestamp.TimeRange{From: 250, To: 750}},
		{"zoom in at left edge", full, 0, 4, timestamp.TimeRange{From: 0, To: 250}},
		{"zoom in off-center", full, 200, 2, timestamp.TimeRange{From: 100, To: 600}},
		{"zoom out to full", timestamp.TimeRange{From: 400, To: 600}, 500, 0.1, full},
		{"zoom out clamps right", timestamp.TimeRange{From: 800, To: 1000}, 1000, 0.5, timestamp.TimeRange{From: 600, To: 1000}},
		{"min width", full, 500, 1e9, timestamp.TimeRange{From: 495, To: 505}},
		{"invalid factor", timestamp.TimeRange{From: 10, To: 20}, 15, 0, timestamp.TimeRange{From: 10, To: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Zoom(tt.view, full, tt.center, tt.factor, 10); got != tt.want {
				t.Errorf("Zoom() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPan(t *testing.T) {
	full := timestamp.TimeRange{From: 0, To: 1000}
	view := timestamp.TimeRange{From: 100, To: 300}

	tests := []struct {
		delta int64
		want  timestamp.TimeRange
	}{
		{50, timestamp.TimeRange{From: 150, To: 350}},
		{-50, timestamp.TimeRange{From: 50, To: 250}},
		{-500, timestamp.TimeRange{From: 0, To: 200}},
		{5000, timestamp.TimeRange{From: 800, To: 1000}},
	}
	for _, tt := range tests {
		if got := Pan(view, full, tt.delta); got != tt.want {
			t.Errorf("Pan(%d) = %v, want %v", tt.delta, got, tt.want)
		}
	}
}

func TestScrubber(t *testing.T) {
	entries := []timestamp.Timestamp{epoch + 900, epoch, epoch + 300}
	s, err := NewScrubber(timestamp.TimeRange{From: epoch, To: epoch + 1000}, 100, entries)
	if err != nil {
		t.Fatalf("NewScrubber() error: %v", err)
	}

	if !slices.IsSorted(s.Entries()) {
		t.Errorf("Entries() = %v, want sorted", s.Entries())
	}
	if entries[0] != epoch+900 {
		t.Error("NewScrubber must not reorder the caller's slice")
	}

	pos := s.Seek(25)
	if pos.Time != epoch+250 || pos.Index != 1 || pos.Entry != epoch+300 {
		t.Errorf("Seek(25) = %+v, want time=+250 index=1 entry=+300", pos)
	}

	pos = s.Step(1)
	if pos.Index != 2 || pos.Pixel != 90 {
		t.Errorf("Step(1) = %+v, want index=2 pixel=90", pos)
	}

	pos = s.Step(5)
	if pos.Index != 2 {
		t.Errorf("Step(5) index = %d, want 2 (clamped)", pos.Index)
	}

	pos = s.Step(-10)
	if pos.Index != 0 || pos.Pixel != 0 {
		t.Errorf("Step(-10) = %+v, want index=0 pixel=0", pos)
	}

	pos = s.SeekTime(epoch + 1000)
	if pos.Pixel != 100 || pos.Index != 2 {
		t.Errorf("SeekTime(to) = %+v, want pixel=100 index=2", pos)
	}
}

func TestScrubberEmpty(t *testing.T) {
	s, err := NewScrubber(timestamp.TimeRange{From: 0, To: 10}, 100, nil)
	if err != nil {
		t.Fatalf("NewScrubber() error: %v", err)
	}
	if pos := s.Seek(50); pos.Index != -1 || pos.Time != 5 {
		t.Errorf("Seek(50) = %+v, want index=-1 time=5", pos)
	}
	if pos := s.Step(1); pos.Index != -1 {
		t.Errorf("Step(1) = %+v, want index=-1", pos)
	}
}

func TestScrubberZeroWidthRange(t *testing.T) {
	if _, err := NewScrubber(timestamp.TimeRange{From: 5, To: 5}, 100, nil); err == nil {
		t.Error("NewScrubber() with zero-width range should fail")
	}
}
