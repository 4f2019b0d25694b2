// Package surplus removes files a bundle does not need from its tree.
package surplus

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/styrene/internal/fsutil"
)

// Filter holds glob patterns relative to a bundle root. A path matched by
// a Protect pattern is never deleted. Protection is by exact path: a
// protected file does not protect the directory containing it.
type Filter struct {
	Delete  []string
	Protect []string
	Logger  hclog.Logger
}

func expand(root, pattern string) ([]string, error) {
	pattern = strings.TrimLeft(filepath.FromSlash(pattern), `/\`)
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Plan lists the paths Apply would delete, in pattern order, without
// touching the tree. Malformed patterns are logged and ignored.
func (f *Filter) Plan(root string) []string {
	logger := f.logger()

	protected := map[string]bool{}
	for _, pat := range f.Protect {
		matches, err := expand(root, pat)
		if err != nil {
			logger.Warn("⚠️ Bad protect pattern", "pattern", pat, "error", err)
			continue
		}
		for _, m := range matches {
			protected[m] = true
		}
	}

	var plan []string
	seen := map[string]bool{}
	for _, pat := range f.Delete {
		matches, err := expand(root, pat)
		if err != nil {
			logger.Warn("⚠️ Bad delete pattern", "pattern", pat, "error", err)
			continue
		}
		for _, m := range matches {
			if protected[m] {
				logger.Debug("🛡️ Keeping protected path", "path", m)
				continue
			}
			if seen[m] {
				continue
			}
			seen[m] = true
			plan = append(plan, m)
		}
	}
	return plan
}

// Apply deletes the planned paths and returns how many were removed.
// Failures are logged, never returned.
func (f *Filter) Apply(root string) int {
	logger := f.logger()
	removed := 0
	for _, p := range f.Plan(root) {
		info, err := os.Lstat(p)
		if err != nil {
			// An earlier directory removal may have taken it.
			continue
		}
		switch {
		case info.IsDir():
			logger.Debug("🗑️ Removing directory", "path", p)
			if err := os.RemoveAll(p); err != nil {
				logger.Warn("⚠️ Directory only partly removed", "path", p, "error", err)
			}
			removed++
		case info.Mode().IsRegular() || info.Mode()&os.ModeSymlink != 0:
			logger.Debug("🗑️ Removing file", "path", p)
			if err := fsutil.Remove(p); err != nil {
				logger.Warn("⚠️ Failed to remove file", "path", p, "error", err)
				continue
			}
			removed++
		default:
			logger.Warn("⚠️ Skipping special file", "path", p, "mode", info.Mode().String())
		}
	}
	logger.Info("🧹 Surplus files removed", "count", removed)
	return removed
}

func (f *Filter) logger() hclog.Logger {
	if f.Logger == nil {
		return hclog.NewNullLogger()
	}
	return f.Logger
}
