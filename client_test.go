package sitesync

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs/billy"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage/awss3"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage/miniostore"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()

	client, err := New(ctx,
		WithAWSConfig(&aws.Config{}),
		WithRegion("eu-west-1"),
		WithEndpoint("http://localhost:4566"),
	)
	require.NoError(t, err)
	assert.IsType(t, &awss3.Store{}, client.store)

	client, err = New(ctx,
		WithBackend(synctypes.BackendMinio),
		WithEndpoint("http://localhost:9000"),
		WithForcePathStyle(true),
	)
	require.NoError(t, err)
	assert.IsType(t, &miniostore.Store{}, client.store)
}

func TestNew_InvalidBackend(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, WithBackend("gcs"))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))

	_, err = New(ctx, WithBackend(synctypes.BackendMinio))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestNewWithStore_Defaults(t *testing.T) {
	store := testutil.NewMemoryStore()

	client := NewWithStore(store)
	assert.Equal(t, DefaultParallelism, client.parallelism)
	assert.NotNil(t, client.logger)
	assert.NotNil(t, client.fs)

	fsys := billy.NewInMemoryFS()
	client = NewWithStore(store, WithFilesystem(fsys), WithParallelism(4), WithParallelism(0))
	assert.Equal(t, 4, client.parallelism)
	assert.Same(t, fsys, client.fs)
}
