package errors

import (
	"math"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "traces/layers.json", false},
		{"absolute", "/tmp/layers.json", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 5000)), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"launcher", "com.android.launcher3", false},
		{"systemui", "com.android.systemui", false},
		{"underscore", "com.example.my_app", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"slash", "com.android/activity", true},
		{"space", "com android", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateWidth(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"typical", 1000, false},
		{"fractional", 0.5, false},

		{"zero", 0, true},
		{"negative", -10, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWidth("width", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWidth(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateWidth(%v) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateIndex(t *testing.T) {
	tests := []struct {
		i, n    int
		wantErr bool
	}{
		{0, 3, false},
		{2, 3, false},
		{3, 3, true},
		{-1, 3, true},
		{0, 0, true},
	}
	for _, tt := range tests {
		err := ValidateIndex(tt.i, tt.n)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateIndex(%d, %d) error = %v, wantErr %v", tt.i, tt.n, err, tt.wantErr)
		}
		if err != nil && !IsNotFound(err) {
			t.Errorf("ValidateIndex(%d, %d) code = %v, want a not-found code", tt.i, tt.n, GetCode(err))
		}
	}
}
