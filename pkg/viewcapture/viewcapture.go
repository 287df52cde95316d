// Package viewcapture tracks which app packages have a view-capture trace.
//
// Layers owned by such packages are known to draw their own content; the
// geometry package marks their rectangles with HasContent so a viewer can
// offer a drill-down into the captured view hierarchy.
package viewcapture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/matzehuels/winscope/pkg/errors"
)

// PackageSet is a concurrency-safe set of package names.
// The zero value is an empty set ready to use.
type PackageSet struct {
	mu   sync.RWMutex
	pkgs map[string]struct{}
}

// NewPackageSet returns a set holding names. Invalid names are rejected.
func NewPackageSet(names ...string) (*PackageSet, error) {
	s := &PackageSet{}
	for _, n := range names {
		if err := s.Add(n); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts a package name.
func (s *PackageSet) Add(name string) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pkgs == nil {
		s.pkgs = make(map[string]struct{})
	}
	s.pkgs[name] = struct{}{}
	return nil
}

// Contains reports whether pkg is in the set. A nil set contains nothing.
func (s *PackageSet) Contains(pkg string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pkgs[pkg]
	return ok
}

// Len returns the number of packages.
func (s *PackageSet) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pkgs)
}

// Names returns the packages in sorted order.
func (s *PackageSet) Names() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.pkgs))
	for n := range s.pkgs {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// capture is the subset of a view-capture export we read.
type capture struct {
	PackageName string            `json:"packageName"`
	Windows     []json.RawMessage `json:"windows"`
}

// Read decodes a view-capture JSON document and adds its package to s.
// It returns the package name.
func (s *PackageSet) Read(r io.Reader) (string, error) {
	var c capture
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode view capture")
	}
	if c.PackageName == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "view capture has no packageName")
	}
	if err := s.Add(c.PackageName); err != nil {
		return "", err
	}
	return c.PackageName, nil
}

// Import reads view-capture files and returns a set of their packages.
func Import(paths ...string) (*PackageSet, error) {
	s := &PackageSet{}
	for _, p := range paths {
		if err := s.importFile(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PackageSet) importFile(path string) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := s.Read(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
