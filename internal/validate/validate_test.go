package validate_test

import (
	"strings"
	"testing"

	"kingo/internal/validate"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"typical id", "dQw4w9WgXcQ", false},
		{"single char", "a", false},
		{"exactly 20 chars", strings.Repeat("a", 20), false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"21 chars", strings.Repeat("a", 21), true},
		{"trims surrounding whitespace", "  abc  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate.VideoID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("VideoID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestDirectoryPath(t *testing.T) {
	if _, err := validate.DirectoryPath(""); err == nil {
		t.Error("DirectoryPath(\"\") should error")
	}
	if _, err := validate.DirectoryPath("../etc"); err == nil {
		t.Error("DirectoryPath with .. should error")
	}

	dir := t.TempDir()
	got, err := validate.DirectoryPath(dir)
	if err != nil {
		t.Fatalf("DirectoryPath(%q) error = %v", dir, err)
	}
	if got == "" {
		t.Error("DirectoryPath should return a non-empty absolute path")
	}
}
