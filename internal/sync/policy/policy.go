// Package policy resolves the cache-control value for a storage key.
package policy

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/patterns"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

const (
	// DefaultCacheControl applies when no default is configured.
	DefaultCacheControl = "max-age=2628000, public"

	// RevalidateCacheControl is forced onto keys matched by an invalidate glob.
	RevalidateCacheControl = "public, must-revalidate"
)

// Policy is the resolved caching behaviour for a key.
type Policy struct {
	CacheControl string
	Cache        bool
}

// Resolver applies cache-control rules to keys.
type Resolver struct {
	defaultCacheControl string
	rules               []synctypes.CacheRule
	invalidate          []string
	logger              *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for rule-match diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver. An empty defaultCacheControl falls back to
// DefaultCacheControl.
func NewResolver(
	defaultCacheControl string,
	rules []synctypes.CacheRule,
	invalidateGlob []string,
	opts ...Option,
) *Resolver {
	if defaultCacheControl == "" {
		defaultCacheControl = DefaultCacheControl
	}
	r := &Resolver{
		defaultCacheControl: defaultCacheControl,
		rules:               rules,
		invalidate:          invalidateGlob,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the policy for key. Every matching rule is applied in order
// so the last match wins; an invalidate glob match overrides all rules.
func (r *Resolver) Resolve(key string) Policy {
	cacheControl := r.defaultCacheControl

	for _, rule := range r.rules {
		if patterns.Match(rule.Glob, key) {
			if r.logger != nil {
				r.logger.Debug("cache rule matched", "key", key, "glob", rule.Glob, "cacheControl", rule.CacheControl)
			}
			cacheControl = rule.CacheControl
		}
	}

	if patterns.MatchAny(r.invalidate, key) {
		cacheControl = RevalidateCacheControl
	}

	return Policy{
		CacheControl: cacheControl,
		Cache:        HasPositiveMaxAge(cacheControl),
	}
}

// HasPositiveMaxAge reports whether cacheControl contains a max-age directive
// with a value greater than zero.
func HasPositiveMaxAge(cacheControl string) bool {
	for _, directive := range strings.Split(cacheControl, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "max-age") {
			continue
		}
		n, err := strconv.ParseInt(strings.Trim(strings.TrimSpace(value), `"`), 10, 64)
		if err == nil && n > 0 {
			return true
		}
	}
	return false
}
