package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docstracker/internal/domain"
)

// pathGuard confines request-supplied paths to a base directory. An empty
// base rejects every override.
type pathGuard struct {
	base string
}

func newPathGuard(base string) pathGuard {
	if base == "" {
		return pathGuard{}
	}
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return pathGuard{base: resolveExisting(base)}
}

// confine returns p as an absolute path inside the base directory. Relative
// paths are taken relative to the base. Symlinks are followed as far as the
// path exists.
func (g pathGuard) confine(field, p string) (string, error) {
	if g.base == "" {
		return "", fmt.Errorf("%s: overrides are disabled: %w", field, domain.ErrPathNotAllowed)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(g.base, p)
	}
	resolved := resolveExisting(filepath.Clean(p))
	rel, err := filepath.Rel(g.base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s %q: %w", field, p, domain.ErrPathNotAllowed)
	}
	return resolved, nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of p and
// re-appends the part that does not exist yet.
func resolveExisting(p string) string {
	var rest []string
	cur := p
	for {
		if r, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(append([]string{r}, rest...)...)
		}
		if _, err := os.Lstat(cur); err == nil {
			// exists but cannot be resolved; keep it lexical
			return p
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}
