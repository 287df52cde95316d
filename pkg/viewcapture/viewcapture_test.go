package viewcapture

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/geometry"
)

var _ geometry.ContentPackages = (*PackageSet)(nil)

func TestPackageSet(t *testing.T) {
	s, err := NewPackageSet("com.android.launcher3", "com.android.systemui")
	if err != nil {
		t.Fatalf("NewPackageSet() error: %v", err)
	}
	if !s.Contains("com.android.launcher3") {
		t.Error("Contains(launcher3) = false")
	}
	if s.Contains("com.example") {
		t.Error("Contains(com.example) = true")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if got := s.Names(); !slices.Equal(got, []string{"com.android.launcher3", "com.android.systemui"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestPackageSetNilAndZero(t *testing.T) {
	var nilSet *PackageSet
	if nilSet.Contains("x") || nilSet.Len() != 0 || nilSet.Names() != nil {
		t.Error("nil set should be empty")
	}
	var zero PackageSet
	if err := zero.Add("x"); err != nil {
		t.Fatal(err)
	}
	if !zero.Contains("x") {
		t.Error("zero value Add/Contains failed")
	}
}

func TestPackageSetRejectsInvalid(t *testing.T) {
	for _, name := range []string{"", "com/example", "has space"} {
		if _, err := NewPackageSet(name); err == nil {
			t.Errorf("NewPackageSet(%q) error = nil", name)
		}
	}
}

func TestRead(t *testing.T) {
	var s PackageSet
	pkg, err := s.Read(strings.NewReader(`{"packageName": "com.android.launcher3", "windows": [{"title": "Launcher"}]}`))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if pkg != "com.android.launcher3" || !s.Contains(pkg) {
		t.Errorf("Read() = %q, set = %v", pkg, s.Names())
	}

	if _, err := s.Read(strings.NewReader(`{"windows": []}`)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Read(no package) error = %v, want INVALID_FORMAT", err)
	}
	if _, err := s.Read(strings.NewReader(`not json`)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Read(garbage) error = %v, want INVALID_FORMAT", err)
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	os.WriteFile(a, []byte(`{"packageName": "com.a"}`), 0o644)
	os.WriteFile(b, []byte(`{"packageName": "com.b"}`), 0o644)

	s, err := Import(a, b)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if got := s.Names(); !slices.Equal(got, []string{"com.a", "com.b"}) {
		t.Errorf("Names() = %v", got)
	}

	if _, err := Import(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Import(missing) error = nil")
	}
}
