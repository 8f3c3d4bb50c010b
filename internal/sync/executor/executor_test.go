package executor

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

func newPlan() *synctypes.Plan {
	return &synctypes.Plan{
		Bucket: "site",
		Items: []*synctypes.PlanItem{
			{Key: "stray.txt", Action: synctypes.ActionUnknown, Remote: &synctypes.RemoteObject{Key: "stray.txt"}},
			{Key: "same.css", Action: synctypes.ActionUnchanged, Local: &synctypes.LocalFile{Path: "/dist/same.css"}},
			{
				Key:                "app/index.html",
				Action:             synctypes.ActionCreate,
				Local:              &synctypes.LocalFile{Path: "/dist/index.html", Size: 6},
				CacheControl:       "public, must-revalidate",
				ContentType:        "text/html",
				ContentDisposition: "inline",
				ACL:                "public-read",
			},
			{
				Key:         "app/version.json",
				Action:      synctypes.ActionUpdate,
				Data:        []byte(`{"v":2}`),
				Local:       &synctypes.LocalFile{Size: 7},
				ContentType: "application/json",
			},
			{Key: "old.js", Action: synctypes.ActionDelete, Remote: &synctypes.RemoteObject{Key: "old.js"}},
		},
	}
}

func TestExecute_Sequential(t *testing.T) {
	fsys := testutil.NewSite(t, "/dist", map[string]string{"index.html": "<html>", "same.css": "x"})
	store := testutil.NewMemoryStore()
	store.Seed("site", "old.js", []byte("old"))

	result, err := NewExecutor(store, fsys).Execute(context.Background(), newPlan())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Uploaded)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, int64(6+7), result.BytesUploaded)

	assert.Equal(t, []testutil.Call{
		{Op: "put", Key: "app/index.html"},
		{Op: "put", Key: "app/version.json"},
		{Op: "delete", Key: "old.js"},
	}, store.Calls())

	html, ok := store.Object("site", "app/index.html")
	require.True(t, ok)
	assert.Equal(t, "<html>", string(html.Data))
	assert.Equal(t, "text/html", html.ContentType)
	assert.Equal(t, "inline", html.ContentDisposition)
	assert.Equal(t, "public, must-revalidate", html.CacheControl)
	assert.Equal(t, "public-read", html.ACL)

	version, _ := store.Object("site", "app/version.json")
	assert.Equal(t, `{"v":2}`, string(version.Data))

	assert.Equal(t, []string{"app/index.html", "app/version.json"}, store.Keys("site"))
}

func TestExecute_ContinuesPastFailures(t *testing.T) {
	fsys := testutil.NewSite(t, "/dist", map[string]string{"index.html": "<html>"})
	store := testutil.NewMemoryStore()
	store.PutErr = func(key string) error {
		if key == "app/index.html" {
			return errors.ErrAccessDenied
		}
		return nil
	}

	var mu sync.Mutex
	var reported []string
	exec := NewExecutor(store, fsys, WithProgress(func(item *synctypes.PlanItem, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			reported = append(reported, item.Key)
		}
	}))

	result, err := exec.Execute(context.Background(), newPlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrExecution)
	assert.ErrorIs(t, err, errors.ErrAccessDenied)

	execErr, ok := errors.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"app/index.html"}, execErr.Keys())
	assert.Equal(t, "Create", execErr.Failures[0].Action)
	assert.Equal(t, []string{"app/index.html"}, reported)

	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Failed)
}

func TestExecute_MissingLocalFile(t *testing.T) {
	store := testutil.NewMemoryStore()
	plan := &synctypes.Plan{Bucket: "site", Items: []*synctypes.PlanItem{
		{Key: "gone.css", Action: synctypes.ActionCreate, Local: &synctypes.LocalFile{Path: "/dist/gone.css"}},
	}}

	_, err := NewExecutor(store, testutil.NewSite(t, "/dist", nil)).Execute(context.Background(), plan)
	execErr, ok := errors.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"gone.css"}, execErr.Keys())
	assert.Empty(t, store.Calls())
}

func TestExecute_Parallel(t *testing.T) {
	files := map[string]string{}
	plan := &synctypes.Plan{Bucket: "site"}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files[name+".txt"] = name
		plan.Items = append(plan.Items, &synctypes.PlanItem{
			Key:    name + ".txt",
			Action: synctypes.ActionCreate,
			Local:  &synctypes.LocalFile{Path: "/dist/" + name + ".txt", Size: 1},
		})
	}
	store := testutil.NewMemoryStore()

	result, err := NewExecutor(store, testutil.NewSite(t, "/dist", files), WithParallelism(4)).
		Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Uploaded)
	assert.Len(t, store.Keys("site"), 8)
	assert.Len(t, store.Calls(), 8)
}

func TestExecute_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := testutil.NewMemoryStore()
	fsys := testutil.NewSite(t, "/dist", map[string]string{"index.html": "<html>"})

	for _, n := range []int{1, 3} {
		_, err := NewExecutor(store, fsys, WithParallelism(n)).Execute(ctx, newPlan())
		assert.True(t, stderrors.Is(err, context.Canceled), "parallelism %d", n)
	}
	assert.Empty(t, store.Calls())
}

func TestExecute_CanceledAfterFailureKeepsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fsys := testutil.NewSite(t, "/dist", map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})
	plan := &synctypes.Plan{Bucket: "site"}
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		plan.Items = append(plan.Items, &synctypes.PlanItem{
			Key:    name,
			Action: synctypes.ActionCreate,
			Local:  &synctypes.LocalFile{Path: "/dist/" + name, Size: 1},
		})
	}

	store := testutil.NewMemoryStore()
	store.PutErr = func(key string) error {
		if key == "a.txt" {
			return errors.ErrAccessDenied
		}
		return nil
	}
	exec := NewExecutor(store, fsys, WithProgress(func(*synctypes.PlanItem, error) { cancel() }))

	result, err := exec.Execute(ctx, plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errors.ErrExecution)
	assert.ErrorIs(t, err, errors.ErrAccessDenied)

	execErr, ok := errors.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"a.txt"}, execErr.Keys())

	require.NotNil(t, result)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Uploaded)
	assert.Empty(t, store.Keys("site"))
}

func TestExecute_RejectsInvalidPlan(t *testing.T) {
	plan := &synctypes.Plan{Bucket: "site", Items: []*synctypes.PlanItem{
		{Key: "a", Action: synctypes.ActionDelete, Remote: &synctypes.RemoteObject{}},
		{Key: "a", Action: synctypes.ActionDelete, Remote: &synctypes.RemoteObject{}},
	}}
	store := testutil.NewMemoryStore()

	_, err := NewExecutor(store, testutil.NewSite(t, "/dist", nil)).Execute(context.Background(), plan)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Empty(t, store.Calls())
}
