// Package errors provides error types and handling for site synchronization.
//
// Every failure surfaced by the scanner, lister, planner, executor and config
// loader is an *Error (or an *ExecutionError for a partially failed run) that
// wraps one of the sentinel errors below, so callers can branch with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a sync operation error with context about the operation that failed.
type Error struct {
	// Op is the operation that failed (e.g., "scan", "list", "upload", "delete")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key or local path (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("sitesync.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("sitesync.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("sitesync.%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("sitesync.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewBucketError creates a new Error with bucket context.
func NewBucketError(op, bucket string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Err:    err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// NewScanError reports a failure while enumerating or reading local files.
// The result matches ErrScan and, when cause is non-nil, the cause itself.
func NewScanError(path string, cause error) *Error {
	return &Error{Op: "scan", Key: path, Err: join(ErrScan, cause)}
}

// NewListingError reports a failed or malformed remote listing.
func NewListingError(bucket string, cause error) *Error {
	return &Error{Op: "list", Bucket: bucket, Err: join(ErrListing, cause)}
}

// NewConfigurationError reports invalid options. It is raised before any I/O.
func NewConfigurationError(message string) *Error {
	return &Error{Op: "configure", Err: fmt.Errorf("%w: %s", ErrConfiguration, message)}
}

func join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// KeyFailure records a single failed upload or delete.
type KeyFailure struct {
	Key    string
	Action string
	Err    error
}

// ExecutionError aggregates every per-key failure of a plan execution.
type ExecutionError struct {
	Bucket   string
	Failures []KeyFailure
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	switch len(e.Failures) {
	case 0:
		return fmt.Sprintf("sitesync.execute bucket %s: %v", e.Bucket, ErrExecution)
	case 1:
		f := e.Failures[0]
		return fmt.Sprintf("sitesync.execute %s/%s: %s failed: %v", e.Bucket, f.Key, f.Action, f.Err)
	default:
		f := e.Failures[0]
		return fmt.Sprintf("sitesync.execute bucket %s: %d operations failed, first %s %s: %v",
			e.Bucket, len(e.Failures), f.Action, f.Key, f.Err)
	}
}

// Unwrap exposes ErrExecution plus every underlying failure.
func (e *ExecutionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrExecution)
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Keys returns the failed keys in failure order.
func (e *ExecutionError) Keys() []string {
	keys := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		keys[i] = f.Key
	}
	return keys
}

// Sentinel errors for common sync failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrScan indicates the local tree could not be enumerated or read
	ErrScan = errors.New("sitesync: scan failed")

	// ErrListing indicates the remote listing failed or returned a malformed entry
	ErrListing = errors.New("sitesync: listing failed")

	// ErrConfiguration indicates invalid options
	ErrConfiguration = errors.New("sitesync: invalid configuration")

	// ErrExecution indicates at least one upload or delete failed
	ErrExecution = errors.New("sitesync: execution failed")

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("sitesync: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("sitesync: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("sitesync: access denied")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("sitesync: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("sitesync: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("sitesync: invalid object key")

	// ErrTooManyRequests indicates that the request rate is too high
	ErrTooManyRequests = errors.New("sitesync: too many requests")

	// ErrInvalidCredentials indicates that the credentials were rejected
	ErrInvalidCredentials = errors.New("sitesync: invalid credentials")
)

// IsConfiguration reports whether err was caused by invalid options.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsBucketNotFound checks if an error indicates that a bucket was not found.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// AsExecutionError returns the ExecutionError in err's chain, if any.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}
