package scanner

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	stderrors "errors"
	"io"
	"iter"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/patterns"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

const (
	// DefaultContentType is used when neither the extension nor the contents identify the file.
	DefaultContentType = "application/octet-stream"

	sniffLen = 512

	maxLinkHops = 40
)

var (
	errStopWalk     = stderrors.New("scanner: stop walk")
	errTooManyLinks = stderrors.New("too many levels of symbolic links")
)

// Option configures a scanner or lister.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LocalScanner enumerates files under a root directory.
type LocalScanner struct {
	filesystem fs.Filesystem
	logger     *slog.Logger
}

// NewLocalScanner creates a scanner reading through filesystem.
func NewLocalScanner(filesystem fs.Filesystem, opts ...Option) *LocalScanner {
	o := buildOptions(opts)
	return &LocalScanner{filesystem: filesystem, logger: o.logger}
}

// Scan yields every regular file under root whose relative key passes the
// include and exclude globs. Exclude wins; an empty include admits all keys.
// Symbolic links are followed: a linked file is keyed by the link's path and a
// linked directory is walked as if it were in place. Links that point to
// an enclosing directory are skipped. Invalid globs, unreadable files, broken
// links and cancellation yield a single error and end the sequence. No
// ordering is guaranteed.
func (s *LocalScanner) Scan(ctx context.Context, root string, include, exclude []string) iter.Seq2[synctypes.LocalFile, error] {
	return func(yield func(synctypes.LocalFile, error) bool) {
		matcher, err := patterns.NewPatternMatcher(include, exclude)
		if err != nil {
			yield(synctypes.LocalFile{}, errors.NewScanError(root, errors.NewConfigurationError(err.Error())))
			return
		}

		w := &walker{scanner: s, ctx: ctx, matcher: matcher, yield: yield}
		walkErr := w.walkRoot(root)

		switch {
		case walkErr == nil:
			s.logger.DebugContext(ctx, "scanned local files", "root", root, "files", w.count)
		case stderrors.Is(walkErr, errStopWalk):
		default:
			var scanErr *errors.Error
			if !stderrors.As(walkErr, &scanErr) {
				walkErr = errors.NewScanError(root, walkErr)
			}
			yield(synctypes.LocalFile{}, walkErr)
		}
	}
}

// walker carries the state of one Scan.
type walker struct {
	scanner *LocalScanner
	ctx     context.Context
	matcher *patterns.PatternMatcher
	yield   func(synctypes.LocalFile, error) bool
	count   int
}

func (w *walker) walkRoot(root string) error {
	info, err := w.scanner.filesystem.Lstat(root)
	if err != nil {
		return errors.NewScanError(root, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return w.walk(root, "", nil)
	}

	target, err := w.resolve(root)
	if err != nil {
		return errors.NewScanError(root, err)
	}
	return w.walk(target, "", nil)
}

// walk visits dir and keys every file relative to it under base. chain holds
// the directories that enclose the current position through followed links.
func (w *walker) walk(dir, base string, chain []string) error {
	return w.scanner.filesystem.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.NewScanError(path, err)
		}
		if info.IsDir() {
			return nil
		}
		if err := w.ctx.Err(); err != nil {
			return errors.NewScanError(path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.NewScanError(path, err)
		}
		key := filepath.ToSlash(filepath.Join(base, rel))

		if info.Mode()&os.ModeSymlink != 0 {
			return w.link(path, key, append(slices.Clip(chain), filepath.Dir(path)))
		}
		return w.file(path, key, info)
	})
}

func (w *walker) link(path, key string, chain []string) error {
	target, err := w.resolve(path)
	if err != nil {
		return errors.NewScanError(path, err)
	}
	info, err := w.scanner.filesystem.Stat(target)
	if err != nil {
		return errors.NewScanError(path, err)
	}
	if !info.IsDir() {
		return w.file(path, key, info)
	}

	for _, dir := range chain {
		if contains(target, dir) {
			w.scanner.logger.WarnContext(w.ctx, "skipping symlink loop", "path", path, "target", target)
			return nil
		}
	}
	return w.walk(target, key, chain)
}

func (w *walker) file(path, key string, info os.FileInfo) error {
	if !w.matcher.ShouldInclude(key) {
		return nil
	}

	file, err := w.scanner.describe(path, key, info)
	if err != nil {
		return err
	}
	w.count++
	if !w.yield(file, nil) {
		return errStopWalk
	}
	return nil
}

// resolve follows the chain of links starting at path and returns the first
// path that is not a link.
func (w *walker) resolve(path string) (string, error) {
	current := path
	for range maxLinkHops {
		info, err := w.scanner.filesystem.Lstat(current)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return current, nil
		}

		target, err := w.scanner.filesystem.Readlink(current)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = filepath.Clean(target)
	}
	return "", errTooManyLinks
}

// contains reports whether path is dir or lies beneath it.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// describe hashes the file and derives its content type from the extension,
// falling back to sniffing the leading bytes.
func (s *LocalScanner) describe(path, key string, info os.FileInfo) (synctypes.LocalFile, error) {
	f, err := s.filesystem.Open(path)
	if err != nil {
		return synctypes.LocalFile{}, errors.NewScanError(path, err)
	}
	defer func() { _ = f.Close() }()

	h := md5.New()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !stderrors.Is(err, io.EOF) && !stderrors.Is(err, io.ErrUnexpectedEOF) {
		return synctypes.LocalFile{}, errors.NewScanError(path, err)
	}
	head = head[:n]
	h.Write(head)
	if _, err := pool.Default.Copy(h, f); err != nil {
		return synctypes.LocalFile{}, errors.NewScanError(path, err)
	}

	return synctypes.LocalFile{
		Path:        path,
		Key:         key,
		Hash:        hex.EncodeToString(h.Sum(nil)),
		Size:        info.Size(),
		ContentType: DetectContentType(path, head),
	}, nil
}

// webTypes pins the types of common web assets. Host MIME tables disagree on
// several of these, sometimes adding a charset.
var webTypes = map[string]string{
	".html":        "text/html",
	".htm":         "text/html",
	".css":         "text/css",
	".js":          "application/javascript",
	".mjs":         "application/javascript",
	".json":        "application/json",
	".map":         "application/json",
	".webmanifest": "application/manifest+json",
	".xml":         "application/xml",
	".txt":         "text/plain",
	".md":          "text/markdown",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".avif":        "image/avif",
	".ico":         "image/x-icon",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".ttf":         "font/ttf",
	".otf":         "font/otf",
	".wasm":        "application/wasm",
	".pdf":         "application/pdf",
	".mp4":         "video/mp4",
	".webm":        "video/webm",
}

// DetectContentType returns the MIME type for a file name. Common web
// extensions resolve from a fixed table; other extensions go through the
// host's MIME tables (mime.TypeByExtension), so their result can vary between
// machines. Unknown extensions are sniffed from head.
func DetectContentType(name string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := webTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	if len(head) > 0 {
		return mimetype.Detect(head).String()
	}
	return DefaultContentType
}
