// Package awss3 implements storage.Store on top of the AWS SDK S3 client.
package awss3

import (
	"context"
	"iter"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage"
)

// DefaultPageSize is the number of keys requested per listing page.
const DefaultPageSize int32 = 1000

// Store is an S3-backed storage.Store.
type Store struct {
	client   s3api.S3API
	pageSize int32
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize overrides the listing page size.
func WithPageSize(size int32) Option {
	return func(s *Store) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithLogger sets the logger for page-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New wraps an S3 client.
func New(client s3api.S3API, opts ...Option) *Store {
	s := &Store{client: client, pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context, bucket, prefix string) iter.Seq2[storage.Entry, error] {
	return func(yield func(storage.Entry, error) bool) {
		input := &s3.ListObjectsV2Input{
			Bucket:  aws.String(bucket),
			MaxKeys: aws.Int32(s.pageSize),
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		paginator := s3.NewListObjectsV2Paginator(s.client, input)
		pages := 0
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(storage.Entry{}, errors.NewBucketError("list", bucket, errors.FromAPIError(err)))
				return
			}
			pages++
			if s.logger != nil {
				s.logger.DebugContext(ctx, "listed page", "bucket", bucket, "page", pages, "objects", len(page.Contents))
			}

			for _, obj := range page.Contents {
				entry := storage.Entry{
					Key:          obj.Key,
					ETag:         obj.ETag,
					Size:         obj.Size,
					LastModified: obj.LastModified,
				}
				if !yield(entry, nil) {
					return
				}
			}
		}
	}
}

// Put implements storage.Store.
func (s *Store) Put(ctx context.Context, in *storage.PutInput) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(in.Bucket),
		Key:           aws.String(in.Key),
		Body:          in.Body,
		ContentLength: aws.Int64(in.Size),
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if in.ContentDisposition != "" {
		input.ContentDisposition = aws.String(in.ContentDisposition)
	}
	if in.CacheControl != "" {
		input.CacheControl = aws.String(in.CacheControl)
	}
	if in.ACL != "" {
		input.ACL = types.ObjectCannedACL(in.ACL)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return errors.NewObjectError("upload", in.Bucket, in.Key, errors.FromAPIError(err))
	}
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.NewObjectError("delete", bucket, key, errors.FromAPIError(err))
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
