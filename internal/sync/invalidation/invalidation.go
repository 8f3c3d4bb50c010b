// Package invalidation derives CDN invalidation paths from a plan.
package invalidation

import (
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

const upperhex = "0123456789ABCDEF"

// Paths returns "/" + the encoded key of every item marked for invalidation
// that already exists remotely, in plan order.
func Paths(plan *synctypes.Plan) []string {
	var paths []string
	for _, item := range plan.Items {
		if item.Invalidate && item.Remote != nil {
			paths = append(paths, "/"+EncodePath(item.Remote.Key))
		}
	}
	return paths
}

// Merge appends extra paths that are not already present, preserving order.
func Merge(paths []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(paths)+len(extra))
	out := make([]string, 0, len(paths)+len(extra))
	for _, p := range append(append([]string{}, paths...), extra...) {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// EncodePath percent-encodes key the way a URI encoder does for a full URI:
// unreserved characters and the reserved set ;,/?:@&=+$# are left intact,
// everything else is UTF-8 percent-encoded.
func EncodePath(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if keep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0F])
	}
	return b.String()
}

func keep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'();,/?:@&=+$#", c) >= 0
}
