package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/timestamp"
	"github.com/matzehuels/winscope/pkg/trace"
)

type traceFile struct {
	Kind    string  `json:"kind"`
	Entries []entry `json:"entries"`
}

type entry struct {
	Timestamp wireTimestamp `json:"timestamp"`
	Layers    []layer       `json:"layers"`
	Displays  []display     `json:"displays"`
}

type layer struct {
	ID         int32      `json:"id"`
	StableID   string     `json:"stableId"`
	Name       string     `json:"name"`
	Parent     *int32     `json:"parent,omitempty"`
	LayerStack int64      `json:"layerStack"`
	Visible    bool       `json:"visible"`
	ZOrderPath []int32    `json:"zOrderPath"`
	OccludedBy []int32    `json:"occludedBy,omitempty"`
	Bounds     bounds     `json:"bounds"`
	Transform  *transform `json:"transform,omitempty"`
}

type bounds struct {
	Left         float64    `json:"left"`
	Top          float64    `json:"top"`
	Right        float64    `json:"right"`
	Bottom       float64    `json:"bottom"`
	Transform    *transform `json:"transform,omitempty"`
	CornerRadius float64    `json:"cornerRadius,omitempty"`
	Label        string     `json:"label,omitempty"`
}

type display struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	LayerStack int64      `json:"layerStack"`
	Size       size       `json:"size"`
	Virtual    bool       `json:"virtual,omitempty"`
	Transform  *transform `json:"transform,omitempty"`
}

type size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// transform uses SurfaceFlinger's naming: x' = dsdx*x + dsdy*y + tx and
// y' = dtdx*x + dtdy*y + ty.
type transform struct {
	DsDx float64 `json:"dsdx"`
	DtDx float64 `json:"dtdx"`
	DsDy float64 `json:"dsdy"`
	DtDy float64 `json:"dtdy"`
	Tx   float64 `json:"tx"`
	Ty   float64 `json:"ty"`
}

func (t transform) matrix() matrix.Matrix {
	return matrix.Matrix{t.DsDx, t.DtDx, t.DsDy, t.DtDy, t.Tx, t.Ty}
}

func fromMatrix(m matrix.Matrix) *transform {
	return &transform{DsDx: m[0], DtDx: m[1], DsDy: m[2], DtDy: m[3], Tx: m[4], Ty: m[5]}
}

// wireTimestamp accepts a JSON number or string.
type wireTimestamp timestamp.Timestamp

func (w *wireTimestamp) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	t, err := timestamp.Parse(s)
	if err != nil {
		return err
	}
	*w = wireTimestamp(t)
	return nil
}

func (w wireTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(timestamp.Timestamp(w).String())
}

// ReadTrace decodes a JSON trace from r.
//
// Entries are sorted by timestamp (stable for equal timestamps) and each
// snapshot is validated. A malformed document, an unknown "kind", or a
// snapshot with duplicate layer IDs yields an INVALID_TRACE error that names
// the offending entry.
//
// ReadTrace does not close r.
func ReadTrace(r io.Reader) (*trace.Trace, error) {
	var data traceFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "decode trace")
	}

	kind, err := timestamp.ParseKind(data.Kind)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "trace kind")
	}

	t := &trace.Trace{Kind: kind, Entries: make([]trace.Entry, len(data.Entries))}
	for i, e := range data.Entries {
		t.Entries[i] = e.decode()
	}
	t.Sort()

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ImportTrace reads a JSON trace file at path.
func ImportTrace(path string) (*trace.Trace, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "trace file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTrace(f)
}

func (e entry) decode() trace.Entry {
	out := trace.Entry{
		Timestamp: timestamp.Timestamp(e.Timestamp),
		Layers:    make([]trace.Layer, len(e.Layers)),
		Displays:  make([]trace.Display, len(e.Displays)),
	}
	for i, l := range e.Layers {
		out.Layers[i] = l.decode()
	}
	for i, d := range e.Displays {
		out.Displays[i] = d.decode()
	}
	return out
}

func (l layer) decode() trace.Layer {
	parent := trace.NoParent
	if l.Parent != nil {
		parent = *l.Parent
	}
	m := matrix.Identity
	if l.Transform != nil {
		m = l.Transform.matrix()
	}
	out := trace.Layer{
		ID:         l.ID,
		StableID:   l.StableID,
		Name:       l.Name,
		ParentID:   parent,
		StackID:    l.LayerStack,
		IsVisible:  l.Visible,
		ZOrderPath: l.ZOrderPath,
		OccludedBy: l.OccludedBy,
		Bounds: trace.Bounds{
			Left:         l.Bounds.Left,
			Top:          l.Bounds.Top,
			Right:        l.Bounds.Right,
			Bottom:       l.Bounds.Bottom,
			CornerRadius: l.Bounds.CornerRadius,
			Label:        l.Bounds.Label,
		},
		Transform: m,
	}
	if out.StableID == "" {
		out.StableID = fmt.Sprintf("%d %s", l.ID, l.Name)
	}
	if l.Bounds.Transform != nil {
		bm := l.Bounds.Transform.matrix()
		out.Bounds.Transform = &bm
	}
	return out
}

func (d display) decode() trace.Display {
	out := trace.Display{
		ID:           d.ID,
		Name:         d.Name,
		LayerStackID: d.LayerStack,
		Size:         trace.Size{Width: d.Size.Width, Height: d.Size.Height},
		IsVirtual:    d.Virtual,
	}
	if d.Transform != nil {
		m := d.Transform.matrix()
		out.Transform = &m
	}
	return out
}
