package testutil

import (
	"crypto/md5"
	"fmt"
	"iter"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs/billy"
)

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string {
	return aws.String(s)
}

// Int64Ptr returns a pointer to the given int64.
func Int64Ptr(i int64) *int64 {
	return aws.Int64(i)
}

// TimePtr returns a pointer to the given time.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// CalculateETag calculates the quoted ETag S3 reports for a single-part upload of data.
func CalculateETag(data []byte) string {
	return fmt.Sprintf(`"%x"`, md5.Sum(data))
}

// CreateTestObject creates a listing entry whose ETag matches data.
func CreateTestObject(key string, data []byte) types.Object {
	return types.Object{
		Key:          StringPtr(key),
		Size:         Int64Ptr(int64(len(data))),
		LastModified: TimePtr(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		ETag:         StringPtr(CalculateETag(data)),
		StorageClass: types.ObjectStorageClassStandard,
	}
}

// CreateListObjectsV2Output creates a listing page. A non-empty next token marks
// the page as truncated.
func CreateListObjectsV2Output(objects []types.Object, nextToken string) *s3.ListObjectsV2Output {
	output := &s3.ListObjectsV2Output{
		Contents:    objects,
		KeyCount:    aws.Int32(int32(len(objects))),
		IsTruncated: aws.Bool(nextToken != ""),
	}
	if nextToken != "" {
		output.NextContinuationToken = StringPtr(nextToken)
	}
	return output
}

// NewSite writes files (relative key to contents) under root in a fresh
// in-memory filesystem.
func NewSite(t *testing.T, root string, files map[string]string) fs.Filesystem {
	t.Helper()
	fsys := billy.NewInMemoryFS()
	for key, content := range files {
		path := filepath.Join(root, filepath.FromSlash(key))
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}
	return fsys
}

// Collect drains a sequence, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Seq turns values into an error-free sequence.
func Seq[T any](values ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, v := range values {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// FailingSeq yields values and then err.
func FailingSeq[T any](err error, values ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, v := range values {
			if !yield(v, nil) {
				return
			}
		}
		var zero T
		yield(zero, err)
	}
}
