// Package glob matches normalized paths against policy patterns.
//
// A pattern matches a path when any of the following hold:
//   - the normalized pattern equals the path;
//   - the pattern contains a wildcard and the doublestar match succeeds
//     ("**" spans any number of segments including none, "*" stays within
//     one segment, "?" is a single character other than the separator);
//   - the path lies beneath the normalized pattern treated as a directory
//     ("logs/" and "logs" both match "logs/app.log").
//
// There is no priority between patterns of one set. Callers decide which
// sets to consult and in what order.
package glob

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// literals are doublestar metacharacters that policy patterns treat as
// ordinary characters. Only "*", "**" and "?" are wildcards.
var literals = strings.NewReplacer(
	`\`, `\\`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
)

// Normalizer canonicalizes both patterns and candidate paths.
type Normalizer interface {
	Normalize(path string) string
}

// Pattern is a compiled policy pattern.
type Pattern struct {
	raw        string
	normalized string
	slashed    string
	wildcard   bool
	dirPrefix  string
}

// Compile normalizes pattern with n and prepares it for matching.
func Compile(pattern string, n Normalizer) Pattern {
	normalized := n.Normalize(pattern)

	dirPrefix := normalized
	if !strings.HasSuffix(dirPrefix, string(filepath.Separator)) {
		dirPrefix += string(filepath.Separator)
	}

	return Pattern{
		raw:        pattern,
		normalized: normalized,
		slashed:    escape(normalized),
		wildcard:   HasWildcard(pattern),
		dirPrefix:  dirPrefix,
	}
}

// String returns the pattern as written in the policy document.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether the normalized path satisfies the pattern.
func (p Pattern) Match(path string) bool {
	if path == p.normalized {
		return true
	}

	if p.wildcard {
		ok, err := doublestar.Match(p.slashed, filepath.ToSlash(path))
		if err == nil && ok {
			return true
		}
	}

	return strings.HasPrefix(path, p.dirPrefix)
}

// escape converts a normalized path to slash form and quotes every
// metacharacter that is not one of the supported wildcards. A workspace root
// or home directory like "/home/dev[1]" must match itself.
func escape(normalized string) string {
	return literals.Replace(filepath.ToSlash(normalized))
}

// Set is an ordered list of compiled patterns.
type Set []Pattern

// CompileAll compiles every pattern in order.
func CompileAll(patterns []string, n Normalizer) Set {
	set := make(Set, 0, len(patterns))
	for _, pattern := range patterns {
		set = append(set, Compile(pattern, n))
	}
	return set
}

// Match reports whether any pattern in the set matches path.
func (s Set) Match(path string) bool {
	for _, p := range s {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// Matches compiles patterns on the fly and reports whether any matches path.
func Matches(path string, patterns []string, n Normalizer) bool {
	return CompileAll(patterns, n).Match(path)
}

// HasWildcard reports whether pattern uses "*" or "?".
func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}

// Validate rejects empty patterns and patterns doublestar cannot compile once
// escaped.
func Validate(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("pattern is empty")
	}
	if !doublestar.ValidatePattern(escape(pattern)) {
		return fmt.Errorf("invalid glob pattern: %s", pattern)
	}
	return nil
}
