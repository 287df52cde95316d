package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/winscope/pkg/cache"
	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/geometry"
	traceio "github.com/matzehuels/winscope/pkg/io"
	"github.com/matzehuels/winscope/pkg/observability"
	"github.com/matzehuels/winscope/pkg/trace"
	"github.com/matzehuels/winscope/pkg/viewcapture"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → derive → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	t, hash, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Trace = t
	result.TraceHash = hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Entries = t.Len()

	r.Logger.Info("loaded trace",
		"entries", t.Len(),
		"kind", t.Kind,
		"duration", result.Stats.LoadTime)

	entry, idx, err := SelectEntry(t, opts)
	if err != nil {
		return nil, err
	}
	result.Entry = entry
	result.EntryIndex = idx
	result.Stats.Layers = len(entry.Layers)

	// Stage 2: Derive
	deriveStart := time.Now()
	rects, deriveHit, err := r.DeriveWithCacheInfo(ctx, hash, entry, idx, opts)
	if err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}
	result.Rectangles = rects
	result.Stats.DeriveTime = time.Since(deriveStart)
	result.Stats.Rectangles = len(rects)
	result.CacheInfo.DeriveHit = deriveHit

	r.Logger.Info("derived rectangles",
		"entry", idx,
		"timestamp", entry.Timestamp,
		"rects", len(rects),
		"cached", deriveHit,
		"duration", result.Stats.DeriveTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, rects, entry, idx, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load returns the trace named by opts together with its content hash.
// An in-memory opts.Trace is hashed through its JSON encoding unless
// opts.TraceHash is already set.
func (r *Runner) Load(ctx context.Context, opts Options) (*trace.Trace, string, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", err
	}

	source := opts.TracePath
	if opts.Trace != nil {
		source = "memory"
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	t, hash, err := r.load(opts)

	entries := 0
	if t != nil {
		entries = t.Len()
	}
	hooks.OnLoadComplete(ctx, source, entries, time.Since(start), err)
	return t, hash, err
}

func (r *Runner) load(opts Options) (*trace.Trace, string, error) {
	if opts.Trace != nil {
		if opts.TraceHash != "" {
			return opts.Trace, opts.TraceHash, nil
		}
		var buf bytes.Buffer
		if err := traceio.WriteTrace(&buf, opts.Trace); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "hash trace")
		}
		return opts.Trace, cache.Hash(buf.Bytes()), nil
	}

	data, err := os.ReadFile(opts.TracePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.New(errors.ErrCodeFileNotFound, "trace file not found: %s", opts.TracePath)
		}
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "read %s", opts.TracePath)
	}
	t, err := traceio.ReadTrace(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	return t, cache.Hash(data), nil
}

// SelectEntry returns the entry opts refers to and its index.
func SelectEntry(t *trace.Trace, opts Options) (*trace.Entry, int, error) {
	if opts.At != nil {
		return t.EntryAt(*opts.At)
	}
	idx := opts.Entry
	if idx < 0 {
		idx += t.Len()
	}
	e, err := t.Entry(idx)
	if err != nil {
		return nil, -1, err
	}
	return e, idx, nil
}

// DeriveWithCacheInfo computes the rectangles of entry with caching and
// reports whether they came from cache. traceHash and index identify the
// entry for the cache key.
func (r *Runner) DeriveWithCacheInfo(ctx context.Context, traceHash string, entry *trace.Entry, index int, opts Options) ([]geometry.Rectangle, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForDerive(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnDeriveStart(ctx, index, len(entry.Layers))
	start := time.Now()

	cacheKey := r.Keyer.RectsKey(traceHash, opts.RectsKeyOpts(index))
	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		rects, err := traceio.ReadRectanglesJSON(bytes.NewReader(data))
		if err == nil {
			observability.Cache().OnCacheHit(ctx, "rects")
			hooks.OnDeriveComplete(ctx, index, len(rects), time.Since(start), nil)
			return rects, true, nil
		}
		opts.Logger.Warn("discarding corrupt cache entry", "key", cacheKey, "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, "rects")

	pkgs, err := opts.contentPackages()
	if err != nil {
		hooks.OnDeriveComplete(ctx, index, 0, time.Since(start), err)
		return nil, false, err
	}
	rects := geometry.DeriveRectangles(*entry, opts.GeometryOptions(), pkgs)
	hooks.OnDeriveComplete(ctx, index, len(rects), time.Since(start), nil)

	var buf bytes.Buffer
	if err := traceio.WriteRectanglesJSON(&buf, rects); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), cache.RectsTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "rects", buf.Len())
		}
	}
	return rects, false, nil
}

// Derive is a convenience wrapper that calls DeriveWithCacheInfo and discards the cache hit info.
func (r *Runner) Derive(ctx context.Context, traceHash string, entry *trace.Entry, index int, opts Options) ([]geometry.Rectangle, error) {
	rects, _, err := r.DeriveWithCacheInfo(ctx, traceHash, entry, index, opts)
	return rects, err
}

// DeriveAll computes the rectangles of every entry of t concurrently.
// The result is indexed like t.Entries. Caching is bypassed.
func (r *Runner) DeriveAll(ctx context.Context, t *trace.Trace, opts Options) ([][]geometry.Rectangle, error) {
	if err := opts.ValidateForDerive(); err != nil {
		return nil, err
	}
	pkgs, err := opts.contentPackages()
	if err != nil {
		return nil, err
	}
	gopts := opts.GeometryOptions()

	out := make([][]geometry.Rectangle, t.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range t.Entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = geometry.DeriveRectangles(t.Entries[i], gopts, pkgs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RenderWithCacheInfo generates artifacts with caching and reports whether
// every artifact came from cache. DOT output is cheap and never cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, rects []geometry.Rectangle, entry *trace.Entry, index int, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	rectsHash, err := cache.HashJSON(traceio.ToRects(rects))
	if err != nil {
		return nil, false, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if format == FormatDOT {
			missing = append(missing, format)
			continue
		}
		key := r.Keyer.ArtifactKey(rectsHash, opts.ArtifactKeyOpts(format, index, entry.Timestamp))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(rects, entry, index, renderOpts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		if format == FormatDOT {
			continue
		}
		key := r.Keyer.ArtifactKey(rectsHash, opts.ArtifactKeyOpts(format, index, entry.Timestamp))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// contentPackages returns opts.ContentPackages, or a set built from
// opts.Packages, or nil when neither is given.
func (o *Options) contentPackages() (geometry.ContentPackages, error) {
	if o.ContentPackages != nil {
		return o.ContentPackages, nil
	}
	if len(o.Packages) == 0 {
		return nil, nil
	}
	set, err := viewcapture.NewPackageSet(o.Packages...)
	if err != nil {
		return nil, err
	}
	return set, nil
}
