package planner

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/patterns"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/policy"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// Planner creates reconciliation plans.
type Planner struct {
	opts     synctypes.PlanOptions
	resolver *policy.Resolver
	logger   *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger for planning diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// NewPlanner validates opts and creates a planner. Malformed globs yield a
// configuration error.
func NewPlanner(opts synctypes.PlanOptions, popts ...Option) (*Planner, error) {
	globs := append([]string{}, opts.IgnoreGlob...)
	globs = append(globs, opts.InvalidateGlob...)
	for _, rule := range opts.CacheControlGlob {
		globs = append(globs, rule.Glob)
	}
	if err := patterns.Validate(globs); err != nil {
		return nil, errors.NewConfigurationError(err.Error())
	}
	for _, inline := range opts.Inline {
		if inline.Key == "" {
			return nil, errors.NewConfigurationError("inline payload has an empty key")
		}
	}

	p := &Planner{
		opts:   opts,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range popts {
		opt(p)
	}
	p.resolver = policy.NewResolver(opts.CacheControl, opts.CacheControlGlob, opts.InvalidateGlob, policy.WithLogger(p.logger))
	return p, nil
}

// Plan drains locals, then remotes, and returns the sorted plan items.
// The first error from either sequence aborts planning.
func (p *Planner) Plan(
	ctx context.Context,
	locals iter.Seq2[synctypes.LocalFile, error],
	remotes iter.Seq2[synctypes.RemoteObject, error],
) ([]*synctypes.PlanItem, error) {
	seeded, order, err := p.seed(ctx, locals)
	if err != nil {
		return nil, err
	}

	items, err := p.merge(ctx, seeded, order, remotes)
	if err != nil {
		return nil, err
	}

	Sort(items)
	return items, nil
}

// seed builds the local item map. order records first-seen key order.
func (p *Planner) seed(
	ctx context.Context,
	locals iter.Seq2[synctypes.LocalFile, error],
) (map[string]synctypes.PlanItem, []string, error) {
	seeded := make(map[string]synctypes.PlanItem)
	var order []string

	add := func(item synctypes.PlanItem) {
		if _, exists := seeded[item.Key]; !exists {
			order = append(order, item.Key)
		} else {
			p.logger.WarnContext(ctx, "duplicate local key, keeping last", "key", item.Key)
		}
		seeded[item.Key] = item
	}

	for file, err := range locals {
		if err != nil {
			return nil, nil, err
		}
		add(p.localItem(file))
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.NewScanError("", err)
	}

	for _, inline := range p.opts.Inline {
		add(p.inlineItem(inline))
	}

	return seeded, order, nil
}

func (p *Planner) localItem(file synctypes.LocalFile) synctypes.PlanItem {
	key := p.opts.Prefix + file.Key
	pol := p.resolver.Resolve(key)

	contentType := file.ContentType
	if contentType == "" {
		contentType = scanner.DetectContentType(file.Path, nil)
	}

	local := file
	return synctypes.PlanItem{
		Key:                key,
		Local:              &local,
		Action:             synctypes.ActionCreate,
		CacheControl:       pol.CacheControl,
		Cache:              pol.Cache,
		ContentType:        contentType,
		ContentDisposition: synctypes.ContentDispositionInline,
		ACL:                p.opts.ACL,
	}
}

func (p *Planner) inlineItem(inline synctypes.InlineFile) synctypes.PlanItem {
	sum := md5.Sum(inline.Data)
	contentType := inline.ContentType
	if contentType == "" {
		contentType = scanner.DetectContentType(inline.Key, inline.Data)
	}

	item := p.localItem(synctypes.LocalFile{
		Key:         inline.Key,
		Hash:        hex.EncodeToString(sum[:]),
		Size:        int64(len(inline.Data)),
		ContentType: contentType,
	})
	item.Data = inline.Data
	if item.Data == nil {
		item.Data = []byte{}
	}
	return item
}

// merge folds the remote sequence over a copy of the seeded items.
func (p *Planner) merge(
	ctx context.Context,
	seeded map[string]synctypes.PlanItem,
	order []string,
	remotes iter.Seq2[synctypes.RemoteObject, error],
) ([]*synctypes.PlanItem, error) {
	merged := make(map[string]*synctypes.PlanItem, len(seeded))

	for remote, err := range remotes {
		if err != nil {
			return nil, err
		}

		key := remote.Key
		if _, seen := merged[key]; !seen {
			if _, local := seeded[key]; !local {
				order = append(order, key)
			}
		}
		merged[key] = p.classify(seeded, remote)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewListingError("", err)
	}

	items := make([]*synctypes.PlanItem, 0, len(order))
	for _, key := range order {
		if item, ok := merged[key]; ok {
			items = append(items, item)
			continue
		}
		item := seeded[key]
		items = append(items, &item)
	}
	return items, nil
}

// classify returns a fresh item for a remote object.
func (p *Planner) classify(seeded map[string]synctypes.PlanItem, remote synctypes.RemoteObject) *synctypes.PlanItem {
	obj := remote

	base, local := seeded[remote.Key]
	if !local {
		item := &synctypes.PlanItem{Key: remote.Key, Remote: &obj, Action: synctypes.ActionUnknown}
		switch {
		case patterns.MatchAny(p.opts.IgnoreGlob, remote.Key):
			item.Action = synctypes.ActionIgnore
		case p.opts.Purge:
			item.Action = synctypes.ActionDelete
		}
		return item
	}

	item := base
	item.Remote = &obj
	if !p.opts.Force && strings.EqualFold(base.Local.Hash, remote.Fingerprint) {
		item.Action = synctypes.ActionUnchanged
	} else {
		item.Action = synctypes.ActionUpdate
		item.Invalidate = p.opts.InvalidateChanges
	}
	return &item
}

// Sort orders items by action priority, then cached before uncached.
// Equal items keep their relative order.
func Sort(items []*synctypes.PlanItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if pa, pb := a.Action.Priority(), b.Action.Priority(); pa != pb {
			return pa < pb
		}
		return a.Cache && !b.Cache
	})
}

// Validate checks plan invariants: every item has a key, an action and at
// least one side, and no key appears twice.
func Validate(items []*synctypes.PlanItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item == nil {
			return errors.NewError("validatePlan", errors.ErrInvalidInput).
				WithMessage(fmt.Sprintf("item %d is nil", i))
		}
		if item.Key == "" {
			return errors.NewError("validatePlan", errors.ErrInvalidObjectKey).
				WithMessage(fmt.Sprintf("item %d has an empty key", i))
		}
		if item.Local == nil && item.Remote == nil && item.Data == nil {
			return errors.NewError("validatePlan", errors.ErrInvalidInput).
				WithKey(item.Key).
				WithMessage("item has neither a local nor a remote side")
		}
		if item.Action.Mutating() && item.Action != synctypes.ActionDelete && item.Local == nil && item.Data == nil {
			return errors.NewError("validatePlan", errors.ErrInvalidInput).
				WithKey(item.Key).
				WithMessage(fmt.Sprintf("%s item has nothing to upload", item.Action))
		}
		if _, dup := seen[item.Key]; dup {
			return errors.NewError("validatePlan", errors.ErrInvalidInput).
				WithKey(item.Key).
				WithMessage("duplicate key")
		}
		seen[item.Key] = struct{}{}
	}
	return nil
}
