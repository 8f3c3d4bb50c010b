// Package storage defines the object-store operations the sync pipeline needs.
//
// Two implementations exist: awss3 (the AWS SDK) and miniostore (minio-go, for
// S3-compatible endpoints). Both report listing entries with optional fields so
// the remote lister can reject malformed entries the same way for either.
package storage

import (
	"context"
	"io"
	"iter"
	"time"
)

// Entry is one raw listing result. Fields are nil when the backend omitted them.
type Entry struct {
	Key          *string
	ETag         *string
	Size         *int64
	LastModified *time.Time
}

// PutInput describes an object upload.
type PutInput struct {
	Bucket             string
	Key                string
	Body               io.Reader
	Size               int64
	ContentType        string
	ContentDisposition string
	CacheControl       string
	ACL                string
}

// Store is an object store holding a deployed site.
type Store interface {
	// List enumerates every object under prefix, following pagination.
	// Iteration stops after the first error.
	List(ctx context.Context, bucket, prefix string) iter.Seq2[Entry, error]

	// Put uploads a single object.
	Put(ctx context.Context, in *PutInput) error

	// Delete removes a single object.
	Delete(ctx context.Context, bucket, key string) error
}
