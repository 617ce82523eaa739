package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FormatBytes formats byte counts into human-readable strings
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// ToSlash rewrites both '\' and the host separator to '/'
func ToSlash(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "\\", "/")
}

// NormalizePath accepts '/' or '\' separated input and returns a cleaned
// path using the host separator. Empty input stays empty.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(filepath.FromSlash(ToSlash(path)))
}

// SplitSegments splits a path on either separator, keeping empty segments
func SplitSegments(path string) []string {
	return strings.Split(ToSlash(path), "/")
}

// BaseName returns the last segment of a '/' or '\' separated path
func BaseName(path string) string {
	segments := SplitSegments(path)
	return segments[len(segments)-1]
}
