package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ErrorCode classifies a sync failure for reporting and exit statuses.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// CodeNotFound indicates a bucket or object does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeForbidden indicates the credentials lack permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeUnauthorized indicates the credentials were rejected.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeInvalidInput indicates a malformed bucket name, key or argument.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeScanFailed indicates the local tree could not be read.
	CodeScanFailed ErrorCode = "SCAN_FAILED"

	// CodeListingFailed indicates the remote listing failed.
	CodeListingFailed ErrorCode = "LISTING_FAILED"

	// CodeExecutionFailed indicates one or more uploads or deletes failed.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeRateLimit indicates the storage service throttled requests.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeCanceled indicates the run was canceled or timed out.
	CodeCanceled ErrorCode = "CANCELED"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// CodeOf returns the most specific code for err. Nil yields the empty code.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	case errors.Is(err, ErrConfiguration):
		return CodeInvalidConfig
	case errors.Is(err, ErrAccessDenied):
		return CodeForbidden
	case errors.Is(err, ErrInvalidCredentials):
		return CodeUnauthorized
	case errors.Is(err, ErrBucketNotFound), errors.Is(err, ErrObjectNotFound):
		return CodeNotFound
	case errors.Is(err, ErrTooManyRequests):
		return CodeRateLimit
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidBucketName), errors.Is(err, ErrInvalidObjectKey):
		return CodeInvalidInput
	case errors.Is(err, ErrExecution):
		return CodeExecutionFailed
	case errors.Is(err, ErrListing):
		return CodeListingFailed
	case errors.Is(err, ErrScan):
		return CodeScanFailed
	default:
		return CodeUnknown
	}
}

var apiErrorCodes = map[string]error{
	"NoSuchBucket":          ErrBucketNotFound,
	"NoSuchKey":             ErrObjectNotFound,
	"NotFound":              ErrObjectNotFound,
	"AccessDenied":          ErrAccessDenied,
	"AllAccessDisabled":     ErrAccessDenied,
	"InvalidAccessKeyId":    ErrInvalidCredentials,
	"SignatureDoesNotMatch": ErrInvalidCredentials,
	"ExpiredToken":          ErrInvalidCredentials,
	"InvalidBucketName":     ErrInvalidBucketName,
	"SlowDown":              ErrTooManyRequests,
	"Throttling":            ErrTooManyRequests,
}

// FromAPIError maps a storage service error to the matching sentinel while
// preserving the original error in the chain. Errors that carry no known
// service code are returned unchanged.
func FromAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return FromCode(apiErr.ErrorCode(), err)
}

// FromCode wraps err with the sentinel registered for a service error code.
func FromCode(code string, err error) error {
	sentinel, ok := apiErrorCodes[code]
	if !ok {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
