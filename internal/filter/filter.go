// Package filter compiles the server-supplied folder patterns into a
// predicate over relative object keys.
package filter

import (
	"path"
	"strings"
)

// Predicate reports whether a relative object key is selected for transfer.
type Predicate func(relKey string) bool

// Rewrite normalizes one folder pattern: the leading path separator is
// dropped and a trailing single-level wildcard segment is widened to a
// recursive wildcard, so "2024/*" selects the whole tree under 2024/ rather
// than only its immediate children. The same dialect is handed to the
// delegated sync tool as include rules.
func Rewrite(pattern string) string {
	pattern = strings.TrimPrefix(pattern, "/")
	if pattern == "*" || strings.HasSuffix(pattern, "/*") {
		pattern += "*"
	}
	return pattern
}

// Compile translates the folder patterns into a single predicate. A key
// matches when any pattern matches it (logical OR). An empty pattern list
// matches everything.
func Compile(patterns []string) Predicate {
	if len(patterns) == 0 {
		return func(string) bool { return true }
	}

	rewritten := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = Rewrite(p); p != "" {
			rewritten = append(rewritten, p)
		}
	}

	return func(relKey string) bool {
		for _, pattern := range rewritten {
			if matchesPattern(relKey, pattern) {
				return true
			}
		}
		return false
	}
}

// matchesPattern checks one key against one glob pattern. A plain "*" stays
// within a path segment (path.Match semantics); "**" crosses segments.
func matchesPattern(key, pattern string) bool {
	if strings.Contains(pattern, "**") {
		return matchesRecursive(key, pattern)
	}
	match, err := path.Match(pattern, key)
	if err != nil {
		return false
	}
	return match
}

// matchesRecursive handles patterns containing a recursive wildcard by
// splitting on the first "**" and testing the literal prefix and suffix.
func matchesRecursive(key, pattern string) bool {
	parts := strings.SplitN(pattern, "**", 2)
	prefix, suffix := parts[0], parts[1]

	// The prefix and suffix must match disjoint spans of the key, or a
	// short key could satisfy both with the same characters.
	if len(key) < len(prefix)+len(suffix) {
		return false
	}
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	if suffix == "" {
		return true
	}
	return strings.HasSuffix(key, suffix)
}
