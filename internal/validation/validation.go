// Package validation checks deployment target settings before any request is
// sent: bucket names, key prefixes, object keys, canned ACLs and content types.
package validation

import (
	"fmt"
	"net/netip"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
)

const (
	minBucketLength = 3
	maxBucketLength = 63
	maxKeyLength    = 1024
)

var mimePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*/[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*(\s*;.*)?$`)

// ValidateBucketName reports whether bucket follows the S3 DNS naming rules.
func ValidateBucketName(bucket string) error {
	fail := func(msg string) error {
		return errors.NewBucketError("validateBucketName", bucket, errors.ErrInvalidBucketName).WithMessage(msg)
	}

	switch {
	case bucket == "":
		return fail("bucket name cannot be empty")
	case len(bucket) < minBucketLength || len(bucket) > maxBucketLength:
		return fail(fmt.Sprintf("bucket name must be between %d and %d characters long", minBucketLength, maxBucketLength))
	}

	for _, c := range bucket {
		if !isBucketChar(c) {
			return fail("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	first, last := bucket[0], bucket[len(bucket)-1]
	switch {
	case !isAlnum(first) || !isAlnum(last):
		return fail("bucket name must start and end with a letter or number")
	case strings.Contains(bucket, ".."):
		return fail("bucket name cannot contain two adjacent periods")
	case isIPv4(bucket):
		return fail("bucket name cannot be formatted as an IP address")
	}
	return nil
}

// ValidatePrefix checks a key prefix. An empty prefix is valid; anything else
// must be a relative key that would not escape the bucket root.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if strings.HasPrefix(prefix, "/") {
		return errors.NewError("validatePrefix", errors.ErrInvalidObjectKey).
			WithKey(prefix).
			WithMessage("prefix cannot start with a slash")
	}
	return checkKey("validatePrefix", prefix)
}

// ValidateObjectKey checks a full object key.
func ValidateObjectKey(key string) error {
	if key == "" {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithMessage("object key cannot be empty")
	}
	return checkKey("validateObjectKey", key)
}

func checkKey(op, key string) error {
	fail := func(msg string) error {
		return errors.NewError(op, errors.ErrInvalidObjectKey).WithKey(key).WithMessage(msg)
	}

	if len(key) > maxKeyLength {
		return fail(fmt.Sprintf("key cannot exceed %d bytes", maxKeyLength))
	}
	if slices.Contains(strings.Split(key, "/"), "..") {
		return fail("key cannot contain path traversal segments")
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return fail("key cannot contain control characters")
	}
	return nil
}

// ValidateACL reports whether acl is one of the canned ACLs known to S3.
// An empty ACL leaves the bucket default in place.
func ValidateACL(acl string) error {
	if acl == "" {
		return nil
	}

	known := types.ObjectCannedACL("").Values()
	if slices.Contains(known, types.ObjectCannedACL(acl)) {
		return nil
	}

	names := make([]string, len(known))
	for i, v := range known {
		names[i] = string(v)
	}
	return errors.NewError("validateACL", errors.ErrInvalidInput).
		WithMessage(fmt.Sprintf("unknown ACL %q, expected one of: %s", acl, strings.Join(names, ", ")))
}

// ValidateContentType checks that contentType looks like a MIME type.
// Empty means "detect".
func ValidateContentType(contentType string) error {
	if contentType == "" || mimePattern.MatchString(contentType) {
		return nil
	}
	return errors.NewError("validateContentType", errors.ErrInvalidInput).
		WithMessage(fmt.Sprintf("content type %q is not a valid MIME type", contentType))
}

func isBucketChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '.' || c == '-'
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}
