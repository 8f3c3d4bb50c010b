package sitesync

import (
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// WithRegion sets the bucket region.
// If not specified, uses the region from the AWS default configuration.
func WithRegion(region string) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL, e.g. LocalStack or MinIO.
// A custom endpoint implies path-style addressing on the s3 backend.
func WithEndpoint(endpoint string) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithBackend selects the storage backend, BackendS3 (default) or BackendMinio.
func WithBackend(backend string) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		if backend != "" {
			c.Backend = backend
		}
	}
}

// WithForcePathStyle forces path-style bucket addressing.
func WithForcePathStyle(forcePathStyle bool) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig overrides the default AWS configuration loading.
func WithAWSConfig(config *aws.Config) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithFilesystem sets the filesystem local trees are read from.
// Defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the logger. Defaults to discarding all output.
func WithLogger(logger *slog.Logger) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithParallelism sets how many bucket operations run at once.
// Values below 1 are ignored.
func WithParallelism(n int) synctypes.Option {
	return func(c *synctypes.ClientConfig) {
		if n > 0 {
			c.Parallelism = n
		}
	}
}

// WithDryRun stops a deployment after planning.
func WithDryRun(dryRun bool) synctypes.DeployOption {
	return func(c *synctypes.DeployOptionConfig) {
		c.DryRun = dryRun
	}
}

// WithConfirm asks fn before executing a plan that has changes.
func WithConfirm(fn synctypes.ConfirmFunc) synctypes.DeployOption {
	return func(c *synctypes.DeployOptionConfig) {
		c.Confirm = fn
	}
}
