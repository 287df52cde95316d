// Package cache provides byte-level caching for derived trace data.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON files under a directory, for CLI usage
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: never stores anything, for --no-cache and tests
//
// Keys are produced by a [Keyer] so that every stage of the pipeline agrees
// on how inputs map to cache entries. A [ScopedKeyer] prefixes every key to
// keep independent deployments apart on a shared backend.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for serialized results.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs.
const (
	// TraceTTL bounds how long an uploaded trace is kept.
	TraceTTL = 24 * time.Hour

	// RectsTTL bounds how long derived rectangles are kept.
	RectsTTL = 7 * 24 * time.Hour

	// ArtifactTTL bounds how long rendered output is kept.
	ArtifactTTL = 7 * 24 * time.Hour
)

// RectsKeyOpts holds the derivation inputs that change the rectangle list.
type RectsKeyOpts struct {
	Entry       int      `json:"entry"`
	OnlyVisible bool     `json:"only_visible"`
	Packages    []string `json:"packages,omitempty"`
}

// ArtifactKeyOpts holds the render inputs that change an artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Width     float64 `json:"width,omitempty"`
	Labels    bool    `json:"labels,omitempty"`
	Highlight string  `json:"highlight,omitempty"`
	Entry     int     `json:"entry"`
	Timestamp int64   `json:"timestamp"`
}

// Keyer generates cache keys.
type Keyer interface {
	// TraceKey identifies an uploaded trace by ID.
	TraceKey(id string) string

	// RectsKey identifies the rectangles of one entry of a trace, where
	// traceHash is the content hash of the trace file.
	RectsKey(traceHash string, opts RectsKeyOpts) string

	// ArtifactKey identifies rendered output of a rectangle list.
	ArtifactKey(rectsHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// TraceKey returns "trace:<id>".
func (DefaultKeyer) TraceKey(id string) string {
	return "trace:" + id
}

// RectsKey hashes the trace hash together with opts.
func (DefaultKeyer) RectsKey(traceHash string, opts RectsKeyOpts) string {
	return hashKey("rects", traceHash, opts)
}

// ArtifactKey hashes the rectangle hash together with opts.
func (DefaultKeyer) ArtifactKey(rectsHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", rectsHash, opts)
}

var _ Keyer = DefaultKeyer{}
