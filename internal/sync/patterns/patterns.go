// Package patterns provides glob matching for keys and paths.
//
// Patterns use doublestar syntax against slash-separated keys: "*" stays within
// one path segment, "**" spans any number of segments (including none, so
// "**/*.html" matches "index.html"), and a trailing "/" matches everything
// below a directory.
package patterns

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadPattern is wrapped by every PatternError.
var ErrBadPattern = doublestar.ErrBadPattern

// Match reports whether key matches pattern. Invalid patterns never match.
func Match(pattern, key string) bool {
	key = filepath.ToSlash(key)

	if strings.HasSuffix(pattern, "/") {
		dir := strings.TrimSuffix(pattern, "/")
		if key == dir || strings.HasPrefix(key, dir+"/") {
			return true
		}
		pattern += "**"
	}

	ok, err := doublestar.Match(pattern, key)
	return err == nil && ok
}

// MatchAny reports whether key matches at least one of patterns.
func MatchAny(patterns []string, key string) bool {
	for _, pattern := range patterns {
		if Match(pattern, key) {
			return true
		}
	}
	return false
}

// PatternMatcher filters keys by include and exclude globs.
type PatternMatcher struct {
	include []string
	exclude []string
}

// NewPatternMatcher validates the globs and returns a matcher. An empty include
// list admits every key.
func NewPatternMatcher(include, exclude []string) (*PatternMatcher, error) {
	if err := Validate(append(append([]string{}, include...), exclude...)); err != nil {
		return nil, err
	}
	return &PatternMatcher{include: include, exclude: exclude}, nil
}

// ShouldInclude determines if a key passes the filters. Excludes take precedence.
func (pm *PatternMatcher) ShouldInclude(key string) bool {
	if MatchAny(pm.exclude, key) {
		return false
	}
	if len(pm.include) == 0 {
		return true
	}
	return MatchAny(pm.include, key)
}

// ValidatePatterns returns one PatternError per malformed pattern.
func ValidatePatterns(patterns []string) []error {
	var errs []error
	for i, pattern := range patterns {
		if pattern == "" {
			errs = append(errs, &PatternError{Pattern: pattern, Index: i, Err: errors.New("empty pattern")})
			continue
		}
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			errs = append(errs, &PatternError{Pattern: pattern, Index: i, Err: ErrBadPattern})
		}
	}
	return errs
}

// Validate joins the result of ValidatePatterns into a single error.
func Validate(patterns []string) error {
	return errors.Join(ValidatePatterns(patterns)...)
}

// PatternError represents an error with a pattern.
type PatternError struct {
	Pattern string
	Index   int
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern at index %d '%s': %v", e.Index, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
