package timeline

import (
	"slices"

	"github.com/matzehuels/winscope/pkg/timestamp"
)

// Position describes where a scrubber currently sits.
type Position struct {
	Pixel float64             `json:"pixel"` // scrubber x coordinate
	Time  timestamp.Timestamp `json:"time"`  // time under the scrubber
	Index int                 `json:"index"` // nearest entry, -1 if the trace is empty
	Entry timestamp.Timestamp `json:"entry"` // timestamp of the nearest entry
}

// Scrubber tracks a draggable time indicator over a fixed set of entries.
// It is not safe for concurrent use; each view owns its own Scrubber.
type Scrubber struct {
	tr      *Transformer
	entries []timestamp.Timestamp
	cursor  int
}

// NewScrubber builds a scrubber over view mapped onto [0, width] pixels.
// entries is copied and sorted.
func NewScrubber(view timestamp.TimeRange, width float64, entries []timestamp.Timestamp) (*Scrubber, error) {
	tr, err := NewTransformer(view, PixelRange{From: 0, To: width})
	if err != nil {
		return nil, err
	}
	sorted := slices.Clone(entries)
	slices.Sort(sorted)
	return &Scrubber{tr: tr, entries: sorted}, nil
}

// Transformer returns the mapping the scrubber uses.
func (s *Scrubber) Transformer() *Transformer { return s.tr }

// Entries returns the sorted entry timestamps.
func (s *Scrubber) Entries() []timestamp.Timestamp { return s.entries }

// Seek moves the scrubber to pixel px and snaps the cursor to the nearest entry.
func (s *Scrubber) Seek(px float64) Position {
	t := s.tr.Untransform(px)
	pos := Position{Pixel: px, Time: t, Index: -1}
	if i, ok := Nearest(s.entries, t); ok {
		s.cursor = i
		pos.Index = i
		pos.Entry = s.entries[i]
	}
	return pos
}

// SeekTime moves the scrubber to t.
func (s *Scrubber) SeekTime(t timestamp.Timestamp) Position {
	pos := Position{Pixel: s.tr.Transform(t), Time: t, Index: -1}
	if i, ok := Nearest(s.entries, t); ok {
		s.cursor = i
		pos.Index = i
		pos.Entry = s.entries[i]
	}
	return pos
}

// Step moves the cursor n entries forward (negative n moves back), stopping
// at the first and last entry.
func (s *Scrubber) Step(n int) Position {
	if len(s.entries) == 0 {
		return Position{Pixel: s.tr.To().From, Time: s.tr.From().From, Index: -1}
	}
	s.cursor = max(0, min(len(s.entries)-1, s.cursor+n))
	return s.Current()
}

// Current returns the position of the selected entry.
func (s *Scrubber) Current() Position {
	if len(s.entries) == 0 {
		return Position{Pixel: s.tr.To().From, Time: s.tr.From().From, Index: -1}
	}
	t := s.entries[s.cursor]
	return Position{Pixel: s.tr.Transform(t), Time: t, Index: s.cursor, Entry: t}
}
