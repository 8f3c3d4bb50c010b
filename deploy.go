package sitesync

import (
	"context"
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// DeployTarget describes one deployment.
type DeployTarget = synctypes.Target

// Plan computes the operations needed to make the bucket match target's
// local tree. The bucket is only read.
//
// Errors:
//   - ErrConfiguration: if the target is incomplete or its globs are malformed
//   - ErrScan: if a local file cannot be read
//   - ErrListing: if the bucket listing fails
func (c *Client) Plan(ctx context.Context, target *DeployTarget) (*synctypes.Plan, error) {
	if err := c.validateTarget(target); err != nil {
		return nil, err
	}
	return c.manager().Plan(ctx, target)
}

// Execute applies a plan produced by Plan.
//
// Every item is attempted. When some fail, the returned error is an
// *errors.ExecutionError listing each failed key and the result still
// counts the successful operations.
func (c *Client) Execute(ctx context.Context, plan *synctypes.Plan) (*synctypes.ExecuteResult, error) {
	if plan == nil {
		return nil, errors.NewError("execute", errors.ErrInvalidInput).WithMessage("plan is nil")
	}
	return c.manager().Execute(ctx, plan)
}

// Deploy plans target and executes the plan unless it has no changes, the
// deployment is a dry run, or the confirm callback declines.
//
// Example:
//
//	result, err := client.Deploy(ctx, target,
//	    sitesync.WithConfirm(func(ctx context.Context, plan *synctypes.Plan, paths []string) (bool, error) {
//	        return askUser(plan)
//	    }),
//	)
func (c *Client) Deploy(
	ctx context.Context,
	target *DeployTarget,
	opts ...synctypes.DeployOption,
) (*synctypes.DeployResult, error) {
	cfg := &synctypes.DeployOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := c.validateTarget(target); err != nil {
		return nil, err
	}
	return c.manager().Deploy(ctx, target, cfg)
}

func (c *Client) validateTarget(target *DeployTarget) error {
	if target == nil {
		return errors.NewConfigurationError("target is nil")
	}
	if target.LocalPath == "" {
		return errors.NewConfigurationError(fmt.Sprintf("target %q: local path is not set", target.Name))
	}
	if err := validation.ValidateBucketName(target.Bucket); err != nil {
		return errors.NewConfigurationError(fmt.Sprintf("target %q: %v", target.Name, err))
	}
	if err := validation.ValidatePrefix(target.Prefix); err != nil {
		return errors.NewConfigurationError(fmt.Sprintf("target %q: %v", target.Name, err))
	}

	info, err := c.fs.Stat(target.LocalPath)
	if err != nil {
		return errors.NewConfigurationError(fmt.Sprintf("target %q: build path %s: %v", target.Name, target.LocalPath, err))
	}
	if !info.IsDir() {
		return errors.NewConfigurationError(fmt.Sprintf("target %q: build path %s is not a directory", target.Name, target.LocalPath))
	}
	return nil
}
