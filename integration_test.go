//go:build integration
// +build integration

package sitesync

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs/billy"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

func TestIntegration_DeployLocalStack(t *testing.T) {
	const bucket = "sitesync-integration"
	ctx := context.Background()

	ls := testutil.SetupLocalStack(t, bucket)
	awsCfg, err := ls.AWSConfig(ctx)
	require.NoError(t, err)
	raw, err := ls.S3Client(ctx)
	require.NoError(t, err)

	root := t.TempDir()
	fsys := billy.NewOSFS("/")
	write := func(key, content string) {
		path := filepath.Join(root, filepath.FromSlash(key))
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}
	write("index.html", "<html>v1</html>")
	write("assets/app.js", "console.log('v1')")

	client, err := New(ctx,
		WithAWSConfig(&awsCfg),
		WithRegion(ls.Region()),
		WithEndpoint(ls.Endpoint()),
		WithFilesystem(fsys),
		WithParallelism(4),
	)
	require.NoError(t, err)

	target := &DeployTarget{
		Name:           "web",
		LocalPath:      root,
		Bucket:         bucket,
		Purge:          true,
		InvalidateGlob: []string{"**/*.html"},
	}

	first, err := client.Deploy(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, synctypes.DeployStatusSuccess, first.Status)
	assert.Equal(t, 2, first.Execution.Uploaded)
	assert.Empty(t, first.Invalidations)

	head, err := raw.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String("index.html")})
	require.NoError(t, err)
	assert.Equal(t, "public, must-revalidate", aws.ToString(head.CacheControl))
	assert.Equal(t, "inline", aws.ToString(head.ContentDisposition))
	assert.Contains(t, aws.ToString(head.ContentType), "text/html")

	second, err := client.Deploy(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, synctypes.DeployStatusNoChanges, second.Status)

	write("index.html", "<html>v2</html>")
	require.NoError(t, fsys.Raw().Remove(filepath.Join(root, "assets", "app.js")))

	third, err := client.Deploy(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, synctypes.DeployStatusSuccess, third.Status)
	assert.Equal(t, []string{"/index.html"}, third.Invalidations)
	assert.Equal(t, 1, third.Execution.Uploaded)
	assert.Equal(t, 1, third.Execution.Deleted)

	_, err = raw.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String("assets/app.js")})
	assert.Error(t, err)
}
