// Package pipeline provides the load → derive → render pipeline shared by
// the CLI and the HTTP API.
//
// # Stages
//
//  1. Load: read a JSON trace from disk (or take an in-memory trace)
//  2. Derive: pick an entry and compute its rectangles
//  3. Render: produce SVG, PNG, JSON or DOT output
//
// The derive and render stages are cached by content hash through a
// [cache.Cache], so re-rendering an unchanged trace is a lookup.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    TracePath: "sf_trace.json",
//	    Entry:     -1, // last entry
//	    Formats:   []string{pipeline.FormatSVG},
//	})
//	svg := result.Artifacts["svg"]
//
// [Runner.DeriveAll] computes every entry of a trace concurrently.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/winscope/pkg/cache"
	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/geometry"
	"github.com/matzehuels/winscope/pkg/timestamp"
	"github.com/matzehuels/winscope/pkg/trace"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// DefaultWidth is the default output width in pixels for SVG and PNG.
const DefaultWidth = 1024.0

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Trace takes precedence over TracePath.
	TracePath string       `json:"trace_path,omitempty"`
	Trace     *trace.Trace `json:"-"`
	TraceHash string       `json:"-"` // content hash of Trace; computed when empty

	// Entry selection. At, when set, selects the entry in effect at that
	// instant; otherwise Entry is an index, negative values counting from
	// the end.
	Entry int                  `json:"entry"`
	At    *timestamp.Timestamp `json:"at,omitempty"`

	// Derive options
	OnlyVisible bool     `json:"only_visible,omitempty"`
	Packages    []string `json:"packages,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Width     float64  `json:"width,omitempty"`
	Labels    bool     `json:"labels,omitempty"`
	Highlight string   `json:"highlight,omitempty"`

	// Runtime options (not serialized)
	Logger          *log.Logger              `json:"-"`
	ContentPackages geometry.ContentPackages `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Trace      *trace.Trace
	TraceHash  string
	EntryIndex int
	Entry      *trace.Entry
	Rectangles []geometry.Rectangle

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Entries    int
	Layers     int
	Rectangles int
	LoadTime   time.Duration
	DeriveTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DeriveHit bool // Whether the rectangles came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForDerive(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a trace source is given.
func (o *Options) ValidateForLoad() error {
	if o.Trace == nil && o.TracePath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "trace or trace_path is required")
	}
	if o.Trace == nil {
		if err := errors.ValidatePath(o.TracePath); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// ValidateForDerive checks package names.
func (o *Options) ValidateForDerive() error {
	for _, p := range o.Packages {
		if err := errors.ValidatePackageName(p); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := errors.ValidateWidth("width", o.Width); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// GeometryOptions returns the options for geometry.DeriveRectangles.
func (o *Options) GeometryOptions() geometry.Options {
	return geometry.Options{OnlyVisible: o.OnlyVisible}
}

// RectsKeyOpts returns cache key options for the derive stage.
func (o *Options) RectsKeyOpts(entry int) cache.RectsKeyOpts {
	return cache.RectsKeyOpts{
		Entry:       entry,
		OnlyVisible: o.OnlyVisible,
		Packages:    o.Packages,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string, entry int, ts timestamp.Timestamp) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		Width:     o.Width,
		Labels:    o.Labels,
		Highlight: o.Highlight,
		Entry:     entry,
		Timestamp: int64(ts),
	}
}
