// Package validate provides input validation for the small surface this
// daemon actually accepts from callers: video ids and directory paths.
package validate

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"kingo/internal/apperror"
	"kingo/internal/constants"
)

// DangerousPathPatterns are patterns that could indicate path traversal.
var DangerousPathPatterns = []string{"..", "~", "$"}

// VideoID validates the opaque video identifier: non-empty, at most
// MaxVideoIDLength characters, trimmed of surrounding whitespace. Per
// §3 of the spec, the core does not validate syntax beyond this — it is
// passed verbatim to the extractor.
func VideoID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	n := utf8.RuneCountInString(trimmed)
	if n < constants.MinVideoIDLength || n > constants.MaxVideoIDLength {
		return "", apperror.NewWithCode("validate.VideoID", apperror.ErrInvalidID,
			apperror.CodeValidation, "invalid video id")
	}
	return trimmed, nil
}

// DirectoryPath validates a directory path supplied by configuration or a
// settings UI. Returns the cleaned absolute path or an error. A
// non-existent directory is not an error — the caller creates it.
func DirectoryPath(path string) (string, error) {
	if path == "" {
		return "", apperror.NewWithMessage("validate.DirectoryPath", apperror.ErrInvalidID, "path must not be empty")
	}

	for _, pattern := range DangerousPathPatterns {
		if strings.Contains(path, pattern) {
			return "", apperror.NewWithMessage("validate.DirectoryPath", apperror.ErrInvalidID,
				"path contains disallowed characters")
		}
	}

	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return "", apperror.Wrap("validate.DirectoryPath", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return absPath, nil
		}
		return "", apperror.Wrap("validate.DirectoryPath", err)
	}
	if !info.IsDir() {
		return "", apperror.NewWithMessage("validate.DirectoryPath", apperror.ErrInvalidID, "path is not a directory")
	}

	return absPath, nil
}
