// Package synctypes provides shared type definitions for site synchronization.
package synctypes

import (
	"time"
)

// LocalFile is a file found under the local build directory.
type LocalFile struct {
	// Path is the absolute filesystem path
	Path string

	// Key is the slash-separated path relative to the scan root
	Key string

	// Hash is the lowercase hex MD5 digest of the full contents
	Hash string

	// Size is the file size in bytes
	Size int64

	// ContentType is the MIME type derived from the extension or contents
	ContentType string
}

// RemoteObject is an object found in the destination bucket.
type RemoteObject struct {
	// Key is the full object key, including any prefix
	Key string

	// Fingerprint is the entity tag with surrounding quotes removed
	Fingerprint string

	// LastModified is set when the listing reports it
	LastModified *time.Time

	// Size is set when the listing reports it
	Size *int64
}

// Action classifies what happens to a key during execution.
type Action string

// Plan actions, in ascending sort priority.
const (
	// ActionUnknown marks a remote-only key that is neither ignored nor purged
	ActionUnknown Action = "Unknown"

	// ActionIgnore marks a remote key matched by an ignore glob
	ActionIgnore Action = "Ignore"

	// ActionUnchanged marks a key whose local and remote contents match
	ActionUnchanged Action = "Unchanged"

	// ActionCreate uploads a local-only key
	ActionCreate Action = "Create"

	// ActionUpdate re-uploads a key whose contents differ
	ActionUpdate Action = "Update"

	// ActionDelete removes a remote-only key when purging
	ActionDelete Action = "Delete"
)

// Actions lists every action in priority order.
var Actions = []Action{
	ActionUnknown,
	ActionIgnore,
	ActionUnchanged,
	ActionCreate,
	ActionUpdate,
	ActionDelete,
}

// Priority returns the sort rank of the action. Unrecognized actions sort first.
func (a Action) Priority() int {
	switch a {
	case ActionIgnore:
		return 1
	case ActionUnchanged:
		return 2
	case ActionCreate:
		return 3
	case ActionUpdate:
		return 4
	case ActionDelete:
		return 5
	default:
		return 0
	}
}

// Mutating reports whether executing the action writes to or deletes from the bucket.
func (a Action) Mutating() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}

// CacheRule overrides the cache-control value for keys matching Glob.
type CacheRule struct {
	Glob         string `json:"glob" yaml:"glob"`
	CacheControl string `json:"cacheControl" yaml:"cacheControl"`
}

// InlineFile is an in-memory payload uploaded under Key instead of a file from disk.
type InlineFile struct {
	Key         string
	Data        []byte
	ContentType string
}

// PlanOptions controls how the planner classifies keys.
type PlanOptions struct {
	// Prefix is prepended to every local key to form the storage key
	Prefix string

	// Purge deletes remote-only keys
	Purge bool

	// Force re-uploads keys even when the fingerprint matches
	Force bool

	// InvalidateChanges marks updated keys for CDN invalidation
	InvalidateChanges bool

	// CacheControl is the default cache-control value
	CacheControl string

	// CacheControlGlob rules are applied in order; the last match wins
	CacheControlGlob []CacheRule

	// InvalidateGlob keys are forced to revalidate
	InvalidateGlob []string

	// IgnoreGlob remote keys are never deleted or changed
	IgnoreGlob []string

	// ACL is the canned ACL applied to uploads
	ACL string

	// Inline payloads are seeded alongside the local files
	Inline []InlineFile
}

// Target describes one deployment: a local tree, a bucket and the policy between them.
type Target struct {
	Name        string
	LocalPath   string
	IncludeGlob []string
	IgnoreGlob  []string

	Bucket   string
	Region   string
	Endpoint string
	Backend  string
	Prefix   string

	// ForcePathStyle addresses the bucket as a path segment, as most
	// S3-compatible endpoints expect
	ForcePathStyle bool

	Force                   bool
	Purge                   bool
	SkipChangesInvalidation bool
	ACL                     string
	CacheControl            string
	CacheControlGlob        []CacheRule
	InvalidateGlob          []string
	Inline                  []InlineFile

	DistributionIDs []string
	InvalidatePaths []string
}

// PlanOptions derives planner options from the target.
func (t *Target) PlanOptions() PlanOptions {
	return PlanOptions{
		Prefix:            t.Prefix,
		Purge:             t.Purge,
		Force:             t.Force,
		InvalidateChanges: !t.SkipChangesInvalidation,
		CacheControl:      t.CacheControl,
		CacheControlGlob:  t.CacheControlGlob,
		InvalidateGlob:    t.InvalidateGlob,
		IgnoreGlob:        t.IgnoreGlob,
		ACL:               t.ACL,
		Inline:            t.Inline,
	}
}

// ExecuteResult summarizes a plan execution.
type ExecuteResult struct {
	// Uploaded is the number of successful Create and Update operations
	Uploaded int

	// Deleted is the number of successful Delete operations
	Deleted int

	// Skipped is the number of items that required no I/O
	Skipped int

	// Failed is the number of failed operations
	Failed int

	// BytesUploaded is the total payload size of successful uploads
	BytesUploaded int64

	// Duration is how long the execution took
	Duration time.Duration
}

// DeployStatus is the outcome of a deployment.
type DeployStatus string

// Deployment outcomes.
const (
	DeployStatusSuccess   DeployStatus = "success"
	DeployStatusFailed    DeployStatus = "failed"
	DeployStatusNoChanges DeployStatus = "no-changes"
	DeployStatusCanceled  DeployStatus = "canceled"
)

// DeployResult is returned by a deployment.
type DeployResult struct {
	Target        string
	Status        DeployStatus
	DryRun        bool
	Plan          *Plan
	Invalidations []string
	Execution     *ExecuteResult
}
