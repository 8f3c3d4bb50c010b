package scanner

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// RemoteLister enumerates objects stored under a bucket prefix.
type RemoteLister struct {
	store  storage.Store
	logger *slog.Logger
}

// NewRemoteLister creates a lister reading from store.
func NewRemoteLister(store storage.Store, opts ...Option) *RemoteLister {
	o := buildOptions(opts)
	return &RemoteLister{store: store, logger: o.logger}
}

// List yields every object under prefix with the ETag quotes stripped.
// A failed page or an entry lacking a key or ETag yields a listing error and
// ends the sequence.
func (l *RemoteLister) List(ctx context.Context, bucket, prefix string) iter.Seq2[synctypes.RemoteObject, error] {
	return func(yield func(synctypes.RemoteObject, error) bool) {
		count := 0
		for entry, err := range l.store.List(ctx, bucket, prefix) {
			if err != nil {
				yield(synctypes.RemoteObject{}, errors.NewListingError(bucket, err))
				return
			}
			if err := ctx.Err(); err != nil {
				yield(synctypes.RemoteObject{}, errors.NewListingError(bucket, err))
				return
			}

			obj, err := toRemoteObject(bucket, entry)
			if err != nil {
				yield(synctypes.RemoteObject{}, err)
				return
			}
			count++
			if !yield(obj, nil) {
				return
			}
		}
		l.logger.DebugContext(ctx, "listed remote objects", "bucket", bucket, "prefix", prefix, "objects", count)
	}
}

func toRemoteObject(bucket string, entry storage.Entry) (synctypes.RemoteObject, error) {
	if entry.Key == nil || *entry.Key == "" {
		return synctypes.RemoteObject{}, errors.NewListingError(bucket, nil).WithMessage("listing entry has no key")
	}
	if entry.ETag == nil || *entry.ETag == "" {
		return synctypes.RemoteObject{}, errors.NewListingError(bucket, nil).
			WithKey(*entry.Key).
			WithMessage("listing entry has no ETag")
	}

	return synctypes.RemoteObject{
		Key:          *entry.Key,
		Fingerprint:  strings.Trim(*entry.ETag, `"`),
		LastModified: entry.LastModified,
		Size:         entry.Size,
	}, nil
}
