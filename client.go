package sitesync

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs/billy"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage/awss3"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage/miniostore"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/executor"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/sync"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// DefaultParallelism is the number of concurrent bucket operations used
// when none is configured.
const DefaultParallelism = 1

// Client deploys local trees to a bucket.
type Client struct {
	store       storage.Store
	fs          fs.Filesystem
	logger      *slog.Logger
	parallelism int
}

// New creates a client for the configured backend.
//
// The s3 backend loads AWS credentials using the default credential chain.
// The minio backend requires an endpoint and reads credentials from the
// environment.
//
// Example:
//
//	client, err := sitesync.New(ctx,
//	    sitesync.WithRegion("us-west-2"),
//	    sitesync.WithEndpoint("http://localhost:4566"),
//	)
func New(ctx context.Context, opts ...synctypes.Option) (*Client, error) {
	cfg := newClientConfig(opts)

	var store storage.Store
	switch cfg.Backend {
	case synctypes.BackendS3:
		s3Client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = awss3.New(s3Client, awss3.WithLogger(cfg.Logger))
	case synctypes.BackendMinio:
		ms, err := miniostore.Dial(cfg.Endpoint, cfg.Region, cfg.ForcePathStyle)
		if err != nil {
			return nil, err
		}
		store = ms
	default:
		return nil, errors.NewConfigurationError("unknown backend " + cfg.Backend)
	}

	return newClient(store, cfg), nil
}

// NewWithStore creates a client around an existing store.
// This is primarily used for testing.
func NewWithStore(store storage.Store, opts ...synctypes.Option) *Client {
	return newClient(store, newClientConfig(opts))
}

func newClientConfig(opts []synctypes.Option) *synctypes.ClientConfig {
	cfg := &synctypes.ClientConfig{
		Backend:     synctypes.BackendS3,
		Parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = billy.NewOSFS("/")
	}
	return cfg
}

func newClient(store storage.Store, cfg *synctypes.ClientConfig) *Client {
	return &Client{
		store:       store,
		fs:          cfg.Filesystem,
		logger:      cfg.Logger,
		parallelism: cfg.Parallelism,
	}
}

func newS3Client(ctx context.Context, cfg *synctypes.ClientConfig) (*s3.Client, error) {
	var awsCfg aws.Config
	if cfg.CustomAWSConfig != nil {
		awsCfg = *cfg.CustomAWSConfig
	} else {
		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	} else if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

func (c *Client) manager() *sync.Manager {
	return sync.NewManager(
		scanner.NewLocalScanner(c.fs, scanner.WithLogger(c.logger)),
		scanner.NewRemoteLister(c.store, scanner.WithLogger(c.logger)),
		executor.NewExecutor(c.store, c.fs,
			executor.WithParallelism(c.parallelism),
			executor.WithLogger(c.logger),
		),
		c.logger,
	)
}
