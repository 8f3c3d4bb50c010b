// Package miniostore implements storage.Store for S3-compatible endpoints using minio-go.
package miniostore

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage"
)

// API is the subset of *minio.Client used by Store.
type API interface {
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObject(
		ctx context.Context,
		bucket, key string,
		reader io.Reader,
		size int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// Store is a minio-backed storage.Store.
type Store struct {
	client API
}

// New wraps a minio client.
func New(client API) *Store {
	return &Store{client: client}
}

// Dial connects to endpoint, which may be a bare host:port or an http(s) URL.
// Credentials come from the AWS and MinIO environment variables and the AWS
// shared credentials file, in that order.
func Dial(endpoint, region string, pathStyle bool) (*Store, error) {
	host, secure, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	lookup := minio.BucketLookupAuto
	if pathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(host, &minio.Options{
		Creds: credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.FileAWSCredentials{},
		}),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, errors.NewError("dial", err).WithMessage(endpoint)
	}
	return New(client), nil
}

func parseEndpoint(endpoint string) (host string, secure bool, err error) {
	if endpoint == "" {
		return "", false, errors.NewConfigurationError("minio backend requires an endpoint")
	}
	if !strings.Contains(endpoint, "://") {
		return endpoint, true, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", false, errors.NewConfigurationError(fmt.Sprintf("invalid endpoint %q", endpoint))
	}
	return u.Host, u.Scheme == "https", nil
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context, bucket, prefix string) iter.Seq2[storage.Entry, error] {
	return func(yield func(storage.Entry, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		objects := s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		})
		for obj := range objects {
			if obj.Err != nil {
				yield(storage.Entry{}, errors.NewBucketError("list", bucket, translateError(obj.Err)))
				return
			}
			if !yield(toEntry(obj), nil) {
				return
			}
		}
	}
}

func toEntry(obj minio.ObjectInfo) storage.Entry {
	var entry storage.Entry
	if obj.Key != "" {
		key := obj.Key
		entry.Key = &key
	}
	if obj.ETag != "" {
		etag := obj.ETag
		entry.ETag = &etag
	}
	size := obj.Size
	entry.Size = &size
	if !obj.LastModified.IsZero() {
		modified := obj.LastModified
		entry.LastModified = &modified
	}
	return entry
}

// Put implements storage.Store. Objects are always written with a single PUT
// so that the stored ETag stays the MD5 of the body.
func (s *Store) Put(ctx context.Context, in *storage.PutInput) error {
	opts := minio.PutObjectOptions{
		ContentType:        in.ContentType,
		ContentDisposition: in.ContentDisposition,
		CacheControl:       in.CacheControl,
		DisableMultipart:   true,
	}
	if in.ACL != "" {
		opts.UserMetadata = map[string]string{"x-amz-acl": in.ACL}
	}

	if _, err := s.client.PutObject(ctx, in.Bucket, in.Key, in.Body, in.Size, opts); err != nil {
		return errors.NewObjectError("upload", in.Bucket, in.Key, translateError(err))
	}
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.NewObjectError("delete", bucket, key, translateError(err))
	}
	return nil
}

func translateError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		return err
	}
	return errors.FromCode(resp.Code, err)
}

var (
	_ storage.Store = (*Store)(nil)
	_ API           = (*minio.Client)(nil)
)
