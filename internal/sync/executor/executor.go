// Package executor applies a plan to a bucket.
//
// Items run in plan order. With parallelism 1 execution is strictly
// sequential; above that, items are dispatched in order through a bounded
// errgroup. Plans with duplicate keys are rejected up front, so operations on
// one key never race. Individual failures do not stop the run; they are
// collected into an *errors.ExecutionError.
package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/planner"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// ProgressFunc is called after each upload or delete with its outcome.
// It may be called concurrently when parallelism is above 1.
type ProgressFunc func(item *synctypes.PlanItem, err error)

// Executor runs plans against a store.
type Executor struct {
	store       storage.Store
	filesystem  fs.Filesystem
	parallelism int
	logger      *slog.Logger
	progress    ProgressFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithParallelism bounds the number of concurrent operations. Values below 1 mean 1.
func WithParallelism(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithLogger sets the logger for per-operation records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithProgress registers a per-operation callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Executor) {
		e.progress = fn
	}
}

// NewExecutor creates an executor that uploads from filesystem into store.
func NewExecutor(store storage.Store, filesystem fs.Filesystem, opts ...Option) *Executor {
	e := &Executor{
		store:       store,
		filesystem:  filesystem,
		parallelism: 1,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run accumulates counters and failures across workers.
type run struct {
	uploaded atomic.Int64
	deleted  atomic.Int64
	skipped  atomic.Int64
	bytes    atomic.Int64

	mu       sync.Mutex
	failures []errors.KeyFailure
}

func (r *run) fail(item *synctypes.PlanItem, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, errors.KeyFailure{Key: item.Key, Action: item.Action.String(), Err: err})
}

// Execute applies every item of plan. It returns an *errors.ExecutionError
// when any operation failed and the context error when canceled. A canceled
// run that had already failed some keys returns both, joined. The result is
// populated in every case.
func (e *Executor) Execute(ctx context.Context, plan *synctypes.Plan) (*synctypes.ExecuteResult, error) {
	start := time.Now()
	if err := planner.Validate(plan.Items); err != nil {
		return nil, err
	}

	r := &run{}
	var err error
	if e.parallelism <= 1 {
		err = e.sequential(ctx, plan, r)
	} else {
		err = e.parallel(ctx, plan, r)
	}

	result := &synctypes.ExecuteResult{
		Uploaded:      int(r.uploaded.Load()),
		Deleted:       int(r.deleted.Load()),
		Skipped:       int(r.skipped.Load()),
		Failed:        len(r.failures),
		BytesUploaded: r.bytes.Load(),
		Duration:      time.Since(start),
	}

	if len(r.failures) > 0 {
		failed := &errors.ExecutionError{Bucket: plan.Bucket, Failures: r.failures}
		if err != nil {
			return result, stderrors.Join(err, failed)
		}
		return result, failed
	}
	return result, err
}

func (e *Executor) sequential(ctx context.Context, plan *synctypes.Plan, r *run) error {
	for _, item := range plan.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.apply(ctx, plan.Bucket, item, r)
	}
	return nil
}

// parallel runs items through a bounded worker group. Validate guarantees
// keys are unique, so no two workers touch the same key.
func (e *Executor) parallel(ctx context.Context, plan *synctypes.Plan, r *run) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for _, item := range plan.Items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.apply(gctx, plan.Bucket, item, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (e *Executor) apply(ctx context.Context, bucket string, item *synctypes.PlanItem, r *run) {
	var err error
	switch item.Action {
	case synctypes.ActionCreate, synctypes.ActionUpdate:
		err = e.upload(ctx, bucket, item)
		if err == nil {
			r.uploaded.Add(1)
			r.bytes.Add(item.Size())
			e.logger.InfoContext(ctx, "uploaded", "action", item.Action, "key", item.Key, "bytes", item.Size())
		}
	case synctypes.ActionDelete:
		err = e.store.Delete(ctx, bucket, item.Key)
		if err == nil {
			r.deleted.Add(1)
			e.logger.InfoContext(ctx, "deleted", "key", item.Key)
		}
	default:
		r.skipped.Add(1)
		return
	}

	if err != nil {
		e.logger.ErrorContext(ctx, "operation failed", "action", item.Action, "key", item.Key, "error", err)
		r.fail(item, err)
	}
	if e.progress != nil {
		e.progress(item, err)
	}
}

func (e *Executor) upload(ctx context.Context, bucket string, item *synctypes.PlanItem) error {
	body, size, err := e.body(item)
	if err != nil {
		return errors.NewObjectError("upload", bucket, item.Key, err)
	}

	return e.store.Put(ctx, &storage.PutInput{
		Bucket:             bucket,
		Key:                item.Key,
		Body:               body,
		Size:               size,
		ContentType:        item.ContentType,
		ContentDisposition: item.ContentDisposition,
		CacheControl:       item.CacheControl,
		ACL:                item.ACL,
	})
}

// body returns the upload payload. Files are read fully so the SDK gets a
// seekable body it can sign and retry.
func (e *Executor) body(item *synctypes.PlanItem) (io.Reader, int64, error) {
	if item.Data != nil {
		return bytes.NewReader(item.Data), int64(len(item.Data)), nil
	}
	data, err := e.filesystem.ReadFile(item.Local.Path)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}
