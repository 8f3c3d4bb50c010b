package scanner

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	stderrors "errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs/billy"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func byKey(files []synctypes.LocalFile) map[string]synctypes.LocalFile {
	out := make(map[string]synctypes.LocalFile, len(files))
	for _, f := range files {
		out[f.Key] = f
	}
	return out
}

func keys(files []synctypes.LocalFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Key)
	}
	sort.Strings(out)
	return out
}

func TestLocalScanner_Scan(t *testing.T) {
	fsys := testutil.NewSite(t, "/site/dist", map[string]string{
		"index.html":        "<html></html>",
		"styles/global.css": "body{}",
		"js/app.js.map":     "{}",
		"LICENSE":           "plain text license",
	})

	files, err := testutil.Collect(NewLocalScanner(fsys).Scan(context.Background(), "/site/dist", nil, []string{"**/*.map"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"LICENSE", "index.html", "styles/global.css"}, keys(files))

	got := byKey(files)
	css := got["styles/global.css"]
	assert.Equal(t, "/site/dist/styles/global.css", css.Path)
	assert.Equal(t, md5Hex("body{}"), css.Hash)
	assert.Equal(t, int64(len("body{}")), css.Size)
	assert.Contains(t, css.ContentType, "text/css")

	assert.Contains(t, got["LICENSE"].ContentType, "text/plain")
}

func TestLocalScanner_IncludeRestricts(t *testing.T) {
	fsys := testutil.NewSite(t, "/dist", map[string]string{
		"index.html":      "a",
		"blog/post.html":  "b",
		"assets/logo.svg": "c",
	})

	files, err := testutil.Collect(NewLocalScanner(fsys).Scan(context.Background(), "/dist", []string{"**/*.html"}, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"blog/post.html", "index.html"}, keys(files))
}

func TestLocalScanner_Errors(t *testing.T) {
	fsys := testutil.NewSite(t, "/dist", map[string]string{"a.txt": "a"})
	scanner := NewLocalScanner(fsys)

	t.Run("missing root", func(t *testing.T) {
		_, err := testutil.Collect(scanner.Scan(context.Background(), "/nope", nil, nil))
		assert.ErrorIs(t, err, errors.ErrScan)
	})

	t.Run("invalid glob", func(t *testing.T) {
		_, err := testutil.Collect(scanner.Scan(context.Background(), "/dist", []string{"[oops"}, nil))
		assert.ErrorIs(t, err, errors.ErrScan)
		assert.ErrorIs(t, err, errors.ErrConfiguration)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := testutil.Collect(scanner.Scan(ctx, "/dist", nil, nil))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func newLinkedSite(t *testing.T) *billy.FS {
	t.Helper()
	fsys := billy.NewInMemoryFS()
	files := map[string]string{
		"/dist/index.html":      "<html></html>",
		"/dist/real/a.txt":      "a",
		"/shared/theme.css":     "body{}",
		"/shared/img/logo.svg":  "<svg/>",
		"/build/app/index.html": "<html>app</html>",
		"/build/app/js/main.js": "main()",
	}
	for path, content := range files {
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}
	require.NoError(t, fsys.Symlink("/shared/theme.css", "/dist/link.css"))
	require.NoError(t, fsys.Symlink("../shared", "/dist/assets"))
	require.NoError(t, fsys.Symlink("..", "/dist/real/up"))
	require.NoError(t, fsys.Symlink("/dist", "/shared/back"))
	require.NoError(t, fsys.Symlink("/build/app", "/current"))
	return fsys
}

func TestLocalScanner_FollowsSymlinks(t *testing.T) {
	fsys := newLinkedSite(t)

	files, err := testutil.Collect(NewLocalScanner(fsys).Scan(context.Background(), "/dist", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"assets/img/logo.svg",
		"assets/theme.css",
		"index.html",
		"link.css",
		"real/a.txt",
	}, keys(files))

	got := byKey(files)
	assert.Equal(t, "/dist/link.css", got["link.css"].Path)
	assert.Equal(t, md5Hex("body{}"), got["link.css"].Hash)
	assert.Equal(t, int64(len("body{}")), got["link.css"].Size)
	assert.Equal(t, "text/css", got["link.css"].ContentType)
	assert.Equal(t, md5Hex("<svg/>"), got["assets/img/logo.svg"].Hash)
}

func TestLocalScanner_SymlinkedRoot(t *testing.T) {
	fsys := newLinkedSite(t)

	files, err := testutil.Collect(NewLocalScanner(fsys).Scan(context.Background(), "/current", nil, []string{"js/**"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, keys(files))
}

func TestLocalScanner_BrokenSymlink(t *testing.T) {
	fsys := newLinkedSite(t)
	require.NoError(t, fsys.Symlink("missing.js", "/dist/broken.js"))

	_, err := testutil.Collect(NewLocalScanner(fsys).Scan(context.Background(), "/dist", nil, nil))
	assert.ErrorIs(t, err, errors.ErrScan)
}

func TestLocalScanner_UnreadableFile(t *testing.T) {
	boom := stderrors.New("device not ready")
	site := testutil.NewSite(t, "/dist", map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})

	tests := []struct {
		name string
		fsys *testutil.FailingFS
	}{
		{name: "open", fsys: &testutil.FailingFS{Filesystem: site, Path: "/dist/b.txt", OpenErr: boom}},
		{name: "read", fsys: &testutil.FailingFS{Filesystem: site, Path: "/dist/b.txt", ReadErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				yielded []string
				errs    []error
			)
			for file, err := range NewLocalScanner(tt.fsys).Scan(context.Background(), "/dist", nil, nil) {
				if err != nil {
					errs = append(errs, err)
					continue
				}
				yielded = append(yielded, file.Key)
			}

			require.Len(t, errs, 1)
			assert.ErrorIs(t, errs[0], errors.ErrScan)
			assert.ErrorIs(t, errs[0], boom)

			var scanErr *errors.Error
			require.True(t, stderrors.As(errs[0], &scanErr))
			assert.Equal(t, "/dist/b.txt", scanErr.Key)

			// Walk order is lexical, so only a.txt precedes the failure.
			assert.Equal(t, []string{"a.txt"}, yielded)
		})
	}
}

func TestLocalScanner_Restartable(t *testing.T) {
	fsys := testutil.NewSite(t, "/dist", map[string]string{"a.txt": "a", "b.txt": "b"})
	seq := NewLocalScanner(fsys).Scan(context.Background(), "/dist", nil, nil)

	first, err := testutil.Collect(seq)
	require.NoError(t, err)
	second, err := testutil.Collect(seq)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)

	taken := 0
	for range seq {
		taken++
		break
	}
	assert.Equal(t, 1, taken)
}

func TestDetectContentType(t *testing.T) {
	assert.Contains(t, DetectContentType("index.html", nil), "text/html")
	assert.Equal(t, "image/png", DetectContentType("logo", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")))
	assert.Equal(t, DefaultContentType, DetectContentType("empty", nil))
}

func TestDetectContentType_PinnedWebTypes(t *testing.T) {
	tests := map[string]string{
		"app.js":          "application/javascript",
		"chunk.MJS":       "application/javascript",
		"index.html":      "text/html",
		"site.css":        "text/css",
		"font.woff2":      "font/woff2",
		"favicon.ico":     "image/x-icon",
		"app.webmanifest": "application/manifest+json",
		"bundle.js.map":   "application/json",
		"module.wasm":     "application/wasm",
	}
	for name, want := range tests {
		assert.Equal(t, want, DetectContentType(name, []byte("ignored")), name)
	}
}
