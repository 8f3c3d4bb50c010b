package sitesync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

func newTestClient(t *testing.T, files map[string]string) (*Client, *testutil.MemoryStore) {
	t.Helper()
	store := testutil.NewMemoryStore()
	return NewWithStore(store, WithFilesystem(testutil.NewSite(t, "/site/dist", files))), store
}

func webTarget() *DeployTarget {
	return &DeployTarget{
		Name:           "web",
		LocalPath:      "/site/dist",
		Bucket:         "my-site",
		Prefix:         "app/",
		Purge:          true,
		InvalidateGlob: []string{"**/*.html"},
		CacheControlGlob: []synctypes.CacheRule{
			{Glob: "app/assets/**", CacheControl: "max-age=31536000, immutable"},
		},
		Inline: []synctypes.InlineFile{
			{Key: "version.json", Data: []byte(`{"v":"2"}`)},
		},
		DistributionIDs: []string{"E123"},
	}
}

func TestClient_Plan(t *testing.T) {
	client, store := newTestClient(t, map[string]string{
		"index.html":    "<html>v2</html>",
		"assets/app.js": "console.log(1)",
	})
	store.Seed("my-site", "app/index.html", []byte("<html>v1</html>"))
	store.Seed("my-site", "app/assets/app.js", []byte("console.log(1)"))
	store.Seed("my-site", "app/legacy.css", []byte("body{}"))

	plan, err := client.Plan(context.Background(), webTarget())
	require.NoError(t, err)
	assert.Equal(t, "my-site", plan.Bucket)
	assert.Equal(t, "app/", plan.Prefix)

	byKey := make(map[string]*synctypes.PlanItem)
	for _, item := range plan.Items {
		byKey[item.Key] = item
	}
	require.Len(t, byKey, 4)

	assert.Equal(t, synctypes.ActionUnchanged, byKey["app/assets/app.js"].Action)
	assert.Equal(t, "max-age=31536000, immutable", byKey["app/assets/app.js"].CacheControl)
	assert.True(t, byKey["app/assets/app.js"].Cache)

	html := byKey["app/index.html"]
	assert.Equal(t, synctypes.ActionUpdate, html.Action)
	assert.True(t, html.Invalidate)
	assert.Equal(t, "public, must-revalidate", html.CacheControl)
	assert.False(t, html.Cache)

	assert.Equal(t, synctypes.ActionCreate, byKey["app/version.json"].Action)
	assert.Equal(t, synctypes.ActionDelete, byKey["app/legacy.css"].Action)

	for i := 1; i < len(plan.Items); i++ {
		assert.LessOrEqual(t, plan.Items[i-1].Action.Priority(), plan.Items[i].Action.Priority())
	}
	assert.Empty(t, store.Calls())
}

func TestClient_Deploy(t *testing.T) {
	client, store := newTestClient(t, map[string]string{
		"index.html":    "<html>v2</html>",
		"assets/app.js": "console.log(1)",
	})
	store.Seed("my-site", "app/index.html", []byte("<html>v1</html>"))
	store.Seed("my-site", "app/legacy.css", []byte("body{}"))

	var confirmed []string
	result, err := client.Deploy(context.Background(), webTarget(),
		WithConfirm(func(_ context.Context, plan *synctypes.Plan, paths []string) (bool, error) {
			confirmed = paths
			return plan.HasChanges(), nil
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, synctypes.DeployStatusSuccess, result.Status)
	assert.Equal(t, []string{"/app/index.html"}, result.Invalidations)
	assert.Equal(t, result.Invalidations, confirmed)
	require.NotNil(t, result.Execution)
	assert.Equal(t, 3, result.Execution.Uploaded)
	assert.Equal(t, 1, result.Execution.Deleted)

	assert.Equal(t, []string{"app/assets/app.js", "app/index.html", "app/version.json"}, store.Keys("my-site"))

	version, ok := store.Object("my-site", "app/version.json")
	require.True(t, ok)
	assert.Equal(t, `{"v":"2"}`, string(version.Data))
	assert.Equal(t, "application/json", version.ContentType)

	html, _ := store.Object("my-site", "app/index.html")
	assert.Equal(t, "public, must-revalidate", html.CacheControl)
	assert.Equal(t, "inline", html.ContentDisposition)

	again, err := client.Deploy(context.Background(), webTarget())
	require.NoError(t, err)
	assert.Equal(t, synctypes.DeployStatusNoChanges, again.Status)
}

func TestClient_DeployDryRun(t *testing.T) {
	client, store := newTestClient(t, map[string]string{"index.html": "<html>"})

	result, err := client.Deploy(context.Background(), webTarget(), WithDryRun(true))
	require.NoError(t, err)
	assert.Equal(t, synctypes.DeployStatusSuccess, result.Status)
	assert.True(t, result.DryRun)
	assert.Nil(t, result.Execution)
	assert.Empty(t, store.Calls())
}

func TestClient_InvalidTarget(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{"index.html": "<html>"})
	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(*DeployTarget)
	}{
		{"missing local path", func(tg *DeployTarget) { tg.LocalPath = "" }},
		{"missing directory", func(tg *DeployTarget) { tg.LocalPath = "/elsewhere" }},
		{"file as directory", func(tg *DeployTarget) { tg.LocalPath = "/site/dist/index.html" }},
		{"bad bucket", func(tg *DeployTarget) { tg.Bucket = "Bad_Bucket" }},
		{"bad prefix", func(tg *DeployTarget) { tg.Prefix = "/abs/" }},
		{"bad glob", func(tg *DeployTarget) { tg.IgnoreGlob = []string{"["} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := webTarget()
			tt.modify(target)

			_, err := client.Plan(ctx, target)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))

			_, err = client.Deploy(ctx, target)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
		})
	}

	_, err := client.Plan(ctx, nil)
	assert.True(t, errors.IsConfiguration(err))

	_, err = client.Execute(ctx, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestClient_ExecuteFailures(t *testing.T) {
	client, store := newTestClient(t, map[string]string{"a.html": "a", "b.html": "b"})
	store.PutErr = func(key string) error {
		if key == "app/b.html" {
			return errors.ErrAccessDenied
		}
		return nil
	}

	target := webTarget()
	target.Inline = nil
	plan, err := client.Plan(context.Background(), target)
	require.NoError(t, err)

	result, err := client.Execute(context.Background(), plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrExecution)
	assert.True(t, errors.IsAccessDenied(err))
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))
}
