package server

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/winscope/pkg/buildinfo"
	"github.com/matzehuels/winscope/pkg/cache"
	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/geometry"
	traceio "github.com/matzehuels/winscope/pkg/io"
	"github.com/matzehuels/winscope/pkg/pipeline"
	"github.com/matzehuels/winscope/pkg/render/hierarchy"
	"github.com/matzehuels/winscope/pkg/timeline"
	"github.com/matzehuels/winscope/pkg/timestamp"
	"github.com/matzehuels/winscope/pkg/trace"
)

// DefaultTimelineWidth is the pixel width used when a request omits width.
const DefaultTimelineWidth = 1000.0

// traceInfo describes a stored trace. Timestamps are decimal strings so
// clients with float64 numbers keep nanosecond precision.
type traceInfo struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Entries    int      `json:"entries"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	Timestamps []string `json:"timestamps,omitempty"`
}

func newTraceInfo(id string, t *trace.Trace, withTimestamps bool) traceInfo {
	rng := t.Range()
	info := traceInfo{
		ID:      id,
		Kind:    t.Kind.String(),
		Entries: t.Len(),
		From:    rng.From.String(),
		To:      rng.To.String(),
	}
	if withTimestamps {
		info.Timestamps = make([]string, t.Len())
		for i, e := range t.Entries {
			info.Timestamps[i] = e.Timestamp.String()
		}
	}
	return info
}

type marker struct {
	Index     int     `json:"index"`
	Timestamp string  `json:"timestamp"`
	Pixel     float64 `json:"pixel"`
}

type timelineResponse struct {
	From    string              `json:"from"`
	To      string              `json:"to"`
	Pixels  timeline.PixelRange `json:"pixels"`
	Markers []marker            `json:"markers"`
}

type seekResponse struct {
	Pixel     float64 `json:"pixel"`
	Time      string  `json:"time"`
	Index     int     `json:"index"`
	Timestamp string  `json:"timestamp,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Current(),
	})
}

// handleUpload stores a JSON trace and returns its ID.
// POST /api/traces
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.maxUpload)
	t, err := traceio.ReadTrace(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			err = errors.Wrap(errors.ErrCodeTooLarge, err, "trace exceeds %d bytes", tooLarge.Limit)
		}
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := traceio.WriteTrace(&buf, t); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode trace"))
		return
	}

	id := uuid.NewString()
	if err := s.store.Set(r.Context(), s.keyer.TraceKey(id), buf.Bytes(), cache.TraceTTL); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store trace"))
		return
	}

	s.logger.Info("trace uploaded", "id", id, "entries", t.Len(), "bytes", buf.Len())
	writeJSON(w, http.StatusCreated, newTraceInfo(id, t, false))
}

// handleTrace returns a stored trace's summary.
// GET /api/traces/{id}
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, _, err := s.loadTrace(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTraceInfo(id, t, true))
}

// handleTimeline maps every entry to a pixel position on a timeline of the
// requested width.
// GET /api/traces/{id}/timeline?width=&from=&to=
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	t, _, err := s.loadTrace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, width, err := viewParams(r, t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tr, err := timeline.NewTransformer(view, timeline.PixelRange{From: 0, To: width})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := timelineResponse{
		From:    view.From.String(),
		To:      view.To.String(),
		Pixels:  tr.To(),
		Markers: make([]marker, 0, t.Len()),
	}
	ts := t.Timestamps()
	for i, px := range timeline.Positions(tr, ts) {
		resp.Markers = append(resp.Markers, marker{Index: i, Timestamp: ts[i].String(), Pixel: px})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSeek converts a pixel coordinate to a time and the nearest entry.
// GET /api/traces/{id}/seek?px=&width=&from=&to=
func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	t, _, err := s.loadTrace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, width, err := viewParams(r, t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	px, err := floatParam(r, "px", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := timeline.NewScrubber(view, width, t.Timestamps())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pos := sc.Seek(px)
	resp := seekResponse{Pixel: pos.Pixel, Time: pos.Time.String(), Index: pos.Index}
	if pos.Index >= 0 {
		resp.Timestamp = pos.Entry.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRects derives and renders the rectangles of one entry.
// GET /api/traces/{id}/entries/{index}/rects?onlyVisible=&format=json|svg|png
func (s *Server) handleRects(w http.ResponseWriter, r *http.Request) {
	t, hash, err := s.loadTrace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	index, err := indexParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	onlyVisible, err := boolParam(r, "onlyVisible")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if format == pipeline.FormatDOT {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "use the hierarchy endpoint for dot output"))
		return
	}

	q := r.URL.Query()
	res, err := s.runner.Execute(r.Context(), pipeline.Options{
		Trace:       t,
		TraceHash:   hash,
		Entry:       index,
		OnlyVisible: onlyVisible,
		Packages:    q["package"],
		Formats:     []string{format},
		Highlight:   q.Get("highlight"),
		Labels:      q.Has("labels"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBytes(w, contentType(format), res.Artifacts[format])
}

// handleHit returns the top-most clickable layer under a point given in
// display coordinates.
// GET /api/traces/{id}/entries/{index}/hit?x=&y=&onlyVisible=
func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	t, hash, err := s.loadTrace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	index, err := indexParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p vec.Vec2
	if p.X, err = floatParam(r, "x", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if p.Y, err = floatParam(r, "y", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	onlyVisible, err := boolParam(r, "onlyVisible")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.Options{
		Entry:       index,
		OnlyVisible: onlyVisible,
		Packages:    r.URL.Query()["package"],
	}
	if err := opts.ValidateForDerive(); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, idx, err := pipeline.SelectEntry(t, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rects, err := s.runner.Derive(r.Context(), hash, entry, idx, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rect, ok := geometry.HitTest(rects, p)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no layer at (%g, %g)", p.X, p.Y))
		return
	}
	writeJSON(w, http.StatusOK, traceio.ToRects([]geometry.Rectangle{rect})[0])
}

// handleHierarchy returns the layer tree of one entry as DOT or SVG.
// GET /api/traces/{id}/entries/{index}/hierarchy?format=dot|svg&detailed=&onlyVisible=
func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	t, _, err := s.loadTrace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	index, err := indexParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, _, err := pipeline.SelectEntry(t, pipeline.Options{Entry: index})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	detailed, err := boolParam(r, "detailed")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	onlyVisible, err := boolParam(r, "onlyVisible")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dot := hierarchy.ToDOT(*entry, hierarchy.Options{Detailed: detailed, OnlyVisible: onlyVisible})
	switch format := r.URL.Query().Get("format"); format {
	case "", pipeline.FormatDOT:
		writeBytes(w, contentType(pipeline.FormatDOT), []byte(dot))
	case pipeline.FormatSVG:
		svg, err := hierarchy.RenderSVG(r.Context(), dot)
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render hierarchy"))
			return
		}
		writeBytes(w, contentType(pipeline.FormatSVG), svg)
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "invalid hierarchy format: %q (must be dot or svg)", format))
	}
}

// loadTrace fetches and decodes a stored trace, returning it with the
// content hash of its stored encoding.
func (s *Server) loadTrace(ctx context.Context, id string) (*trace.Trace, string, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "invalid trace id: %q", id)
	}
	data, ok, err := s.store.Get(ctx, s.keyer.TraceKey(id))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "load trace %s", id)
	}
	if !ok {
		return nil, "", errors.New(errors.ErrCodeTraceNotFound, "trace not found: %s", id)
	}
	t, err := traceio.ReadTrace(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "decode stored trace %s", id)
	}
	return t, cache.Hash(data), nil
}

// viewParams reads width, from and to. The view defaults to [trace.Trace.View].
func viewParams(r *http.Request, t *trace.Trace) (timestamp.TimeRange, float64, error) {
	width, err := floatParam(r, "width", DefaultTimelineWidth)
	if err != nil {
		return timestamp.TimeRange{}, 0, err
	}
	if err := errors.ValidateWidth("width", width); err != nil {
		return timestamp.TimeRange{}, 0, err
	}
	view := t.View()
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if view.From, err = timestamp.Parse(v); err != nil {
			return timestamp.TimeRange{}, 0, err
		}
	}
	if v := q.Get("to"); v != "" {
		if view.To, err = timestamp.Parse(v); err != nil {
			return timestamp.TimeRange{}, 0, err
		}
	}
	return view, width, nil
}

func indexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid entry index: %q", raw)
	}
	return i, nil
}

func floatParam(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", key, raw)
	}
	return v, nil
}

func boolParam(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", key, raw)
	}
	return v, nil
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatJSON:
		return "application/json"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}
