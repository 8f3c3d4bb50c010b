package synctypes

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
)

// Storage backends.
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// ClientConfig holds configuration for the sitesync client.
type ClientConfig struct {
	Region          string
	Endpoint        string
	Backend         string
	ForcePathStyle  bool
	CustomAWSConfig *aws.Config
	Filesystem      fs.Filesystem
	Logger          *slog.Logger
	Parallelism     int
}

// ConfirmFunc is asked before a plan with changes is executed. Returning
// false cancels the deployment.
type ConfirmFunc func(ctx context.Context, plan *Plan, invalidations []string) (bool, error)

// DeployOptionConfig holds configuration for deploy operations via functional options.
type DeployOptionConfig struct {
	DryRun  bool
	Confirm ConfirmFunc
}

type (
	// Option is a functional option for configuring the sitesync client.
	Option func(*ClientConfig)
	// DeployOption is a functional option for configuring a deployment.
	DeployOption func(*DeployOptionConfig)
)
