package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

func testPlan() *synctypes.Plan {
	return &synctypes.Plan{
		Bucket: "site",
		Items: []*synctypes.PlanItem{
			{Key: "stray.txt", Action: synctypes.ActionUnknown, Remote: &synctypes.RemoteObject{Key: "stray.txt"}},
			{
				Key:          "logo.png",
				Action:       synctypes.ActionUnchanged,
				Local:        &synctypes.LocalFile{Size: 10},
				Cache:        true,
				CacheControl: "max-age=60",
				ContentType:  "image/png",
			},
			{
				Key:          "app.js",
				Action:       synctypes.ActionCreate,
				Local:        &synctypes.LocalFile{Size: 120},
				Cache:        true,
				CacheControl: "max-age=60",
				ContentType:  "text/javascript",
			},
			{
				Key:          "index.html",
				Action:       synctypes.ActionUpdate,
				Local:        &synctypes.LocalFile{Size: 30},
				Invalidate:   true,
				CacheControl: "public, must-revalidate",
				ContentType:  "text/html",
			},
			{
				Key:         "version.json",
				Action:      synctypes.ActionCreate,
				Local:       &synctypes.LocalFile{Size: 7},
				Data:        []byte(`{"v":1}`),
				ContentType: "application/json",
			},
			{Key: "old.css", Action: synctypes.ActionDelete, Remote: &synctypes.RemoteObject{Key: "old.css"}},
		},
	}
}

func TestPlan_HidesNoopItems(t *testing.T) {
	var buf bytes.Buffer
	Plan(&buf, testPlan(), Options{})
	out := buf.String()

	for _, key := range []string{"app.js", "index.html", "version.json", "old.css"} {
		assert.Contains(t, out, key)
	}
	assert.NotContains(t, out, "stray.txt")
	assert.NotContains(t, out, "logo.png")

	assert.Contains(t, out, `"max-age=60"`)
	assert.Contains(t, out, "Invalidate")
	assert.Contains(t, out, "DATA")
	assert.Contains(t, out, "120b")
	assert.Contains(t, out, "2 create, 1 update, 1 delete, 1 unchanged, 1 unknown")
	assert.Contains(t, out, "157b")
	assert.NotContains(t, out, "\x1b[")
}

func TestPlan_Verbose(t *testing.T) {
	var buf bytes.Buffer
	Plan(&buf, testPlan(), Options{Verbose: true})
	out := buf.String()

	assert.Contains(t, out, "stray.txt")
	assert.Contains(t, out, "logo.png")
	assert.Contains(t, out, "Cached")
}

func TestPlan_Color(t *testing.T) {
	text.EnableColors()

	var buf bytes.Buffer
	Plan(&buf, testPlan(), Options{Color: true})
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestCacheLabel(t *testing.T) {
	tests := []struct {
		name string
		item synctypes.PlanItem
		want string
	}{
		{"uncached", synctypes.PlanItem{Action: synctypes.ActionCreate, CacheControl: "no-cache"}, ""},
		{"cached unchanged", synctypes.PlanItem{Action: synctypes.ActionUnchanged, Cache: true, CacheControl: "max-age=1"}, "Cached"},
		{"cached upload", synctypes.PlanItem{Action: synctypes.ActionUpdate, Cache: true, CacheControl: "max-age=1"}, `"max-age=1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cacheLabel(&tt.item))
		})
	}
}

func TestInvalidations(t *testing.T) {
	var buf bytes.Buffer
	Invalidations(&buf, nil, nil)
	assert.Empty(t, buf.String())

	Invalidations(&buf, []string{"/index.html", "/a%20b.html"}, nil)
	assert.Equal(t, "CloudFront invalidations:\n  /index.html\n  /a%20b.html\n  (no distribution id configured)\n", buf.String())

	buf.Reset()
	Invalidations(&buf, []string{"/index.html"}, []string{"E1"})
	assert.Equal(t, "CloudFront invalidations:\n  /index.html\n", buf.String())
}

func TestResult(t *testing.T) {
	var buf bytes.Buffer
	Result(&buf, &synctypes.DeployResult{
		Target: "web",
		Status: synctypes.DeployStatusSuccess,
		Execution: &synctypes.ExecuteResult{
			Uploaded:      2,
			Deleted:       1,
			Skipped:       3,
			BytesUploaded: 150,
			Duration:      1500 * time.Millisecond,
		},
	}, Options{})
	assert.Equal(t, "web: success\n  uploaded 2 (150b), deleted 1, skipped 3, failed 0 in 1.5s\n", buf.String())

	buf.Reset()
	Result(&buf, &synctypes.DeployResult{Target: "web", Status: synctypes.DeployStatusSuccess, DryRun: true}, Options{})
	assert.Equal(t, "web: success (dry run)\n", buf.String())
}
