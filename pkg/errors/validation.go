package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidatePath validates a user-supplied file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidatePackageName validates an application package name such as
// "com.android.launcher3". Names are compared verbatim against layer labels,
// so only obviously broken input is rejected.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "package name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "package name too long (max 256 characters)")
	}
	if strings.ContainsAny(name, "/ \t") {
		return New(ErrCodeInvalidInput, "package name contains invalid characters: %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "package name contains invalid control characters")
		}
	}
	return nil
}

// ValidateWidth checks a pixel width supplied by a user: it must be finite
// and positive. name is used in the message ("width", "timeline_width").
func ValidateWidth(name string, w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return New(ErrCodeInvalidInput, "%s must be a finite number, got %v", name, w)
	}
	if w <= 0 {
		return New(ErrCodeInvalidInput, "%s must be positive, got %g", name, w)
	}
	return nil
}

// ValidateIndex checks that i addresses one of n entries.
func ValidateIndex(i, n int) error {
	if i < 0 || i >= n {
		return New(ErrCodeEntryNotFound, "entry %d out of range (trace has %d entries)", i, n)
	}
	return nil
}
