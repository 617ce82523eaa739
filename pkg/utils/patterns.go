package utils

import (
	"strings"
)

// ParsePatterns parses comma-separated pattern strings into slices
func ParsePatterns(patternStr string) []string {
	if patternStr == "" {
		return nil
	}

	patterns := strings.Split(patternStr, ",")
	var result []string

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern != "" {
			result = append(result, pattern)
		}
	}

	return result
}

// AppendUnique appends the values that are not already present, keeping order
func AppendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if !Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}

// RemoveAll returns list without any of values. Absent values are ignored.
func RemoveAll(list []string, values ...string) []string {
	if len(list) == 0 {
		return list
	}
	kept := list[:0:0]
	for _, v := range list {
		if !Contains(values, v) {
			kept = append(kept, v)
		}
	}
	return kept
}

// Contains reports whether value is in list
func Contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
