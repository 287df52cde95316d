package geometry

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/matzehuels/winscope/pkg/trace"
)

func TestCompareZOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b trace.Layer
		want int // sign: -1 a on top, 1 b on top
	}{
		{"larger first component", layer(1, "a", 2), layer(2, "b", 1), -1},
		{"smaller first component", layer(1, "a", 1), layer(2, "b", 2), 1},
		{"differs deeper", layer(1, "a", 1, 5), layer(2, "b", 1, 3), -1},
		{"identical paths larger id", layer(5, "a", 1, 4), layer(3, "b", 1, 4), -1},
		{"identical paths smaller id", layer(3, "a", 1, 4), layer(5, "b", 1, 4), 1},
		{"prefix falls to id", layer(2, "a", 1), layer(1, "b", 1, 9), -1},
		{"prefix falls to id reversed", layer(1, "a", 1), layer(2, "b", 1, 9), 1},
		{"both empty", layer(4, "a"), layer(8, "b"), 1},
		{"empty vs positive path uses id", layer(9, "a"), layer(1, "b", 5), -1},
		{"empty vs positive path smaller id", layer(1, "a"), layer(9, "b", 5), 1},
		{"negative components", layer(1, "a", -1), layer(2, "b", -2), -1},
		{"same layer", layer(1, "a", 1), layer(1, "a", 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareZOrder(tt.a, tt.b)
			if sign(got) != tt.want {
				t.Errorf("CompareZOrder() = %d, want sign %d", got, tt.want)
			}
			if rev := CompareZOrder(tt.b, tt.a); sign(rev) != -tt.want {
				t.Errorf("CompareZOrder(b, a) = %d, want sign %d", rev, -tt.want)
			}
		})
	}
}

func TestSortByZOrderDeterministic(t *testing.T) {
	layers := []trace.Layer{
		layer(1, "root", 0),
		layer(2, "wallpaper", 0, 1),
		layer(3, "launcher", 0, 2),
		layer(4, "launcher-surface", 0, 2, 0),
		layer(5, "statusbar", 1),
		layer(6, "nav", 1),
		layer(7, "orphan"),
	}
	want := ids(layersToRects(SortByZOrder(layers)))

	rng := rand.New(rand.NewSource(1))
	for range 20 {
		shuffled := slices.Clone(layers)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := ids(layersToRects(SortByZOrder(shuffled))); !slices.Equal(got, want) {
			t.Fatalf("SortByZOrder() = %v, want %v", got, want)
		}
	}

	// orphan has an empty path, so only IDs decide against it and 7 wins.
	expected := []string{"orphan", "nav", "statusbar", "launcher-surface", "launcher", "wallpaper", "root"}
	if !slices.Equal(want, expected) {
		t.Errorf("SortByZOrder() = %v, want %v", want, expected)
	}
}

func layersToRects(layers []trace.Layer) []Rectangle {
	out := make([]Rectangle, len(layers))
	for i, l := range layers {
		out[i] = LayerRectangle(l, nil)
	}
	return out
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestSortByZOrderIntransitiveInput(t *testing.T) {
	// a beats b on ID, b beats c on path, c beats a on ID.
	a := layer(5, "a")
	b := layer(1, "b", 2)
	c := layer(9, "c", 1)

	want := ids(layersToRects(SortByZOrder([]trace.Layer{a, b, c})))
	for _, perm := range [][]trace.Layer{{c, b, a}, {b, a, c}, {b, c, a}, {a, c, b}, {c, a, b}} {
		if got := ids(layersToRects(SortByZOrder(perm))); !slices.Equal(got, want) {
			t.Errorf("SortByZOrder(%v) = %v, want %v", ids(layersToRects(perm)), got, want)
		}
	}
}
