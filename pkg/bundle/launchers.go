package bundle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/provide-io/styrene/pkg/desktop"
)

// ApplicationsDir is where .desktop files live below the target prefix.
var ApplicationsDir = filepath.Join("share", "applications")

// initLaunchers loads the launchers named in [bundle] launchers. Each
// comes from a .desktop file in the tree, a spec section of the same
// name, or both, with the section's keys winning. Incomplete launchers
// are logged and left out.
func (b *Bundle) initLaunchers(root string) {
	b.Launchers = nil
	seen := map[string]bool{}
	appDir := filepath.Join(root, b.Arch.Subdir(), ApplicationsDir)

	for _, name := range b.Spec.List("launchers") {
		logger := b.logger.With("launcher", name)
		logger.Info("🎯 loading launcher")

		entry := &desktop.Entry{}
		if strings.HasSuffix(name, ".desktop") {
			p := filepath.Join(appDir, name)
			if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
				e, err := desktop.ParseFile(p, logger)
				if err != nil {
					logger.Error("❌ bad desktop entry", "path", p, "error", err)
					continue
				}
				entry = e
			}
		}
		if section, ok := b.Spec.Section(name); ok {
			if err := entry.Update(section, name); err != nil {
				logger.Error("❌ bad launcher section", "error", err)
				continue
			}
		}

		if !entry.Valid() {
			logger.Error("❌ no complete launcher with this name in the spec or as a .desktop file in the tree",
				"searched", appDir)
			continue
		}
		if seen[entry.ID] {
			logger.Error("❌ duplicate launcher ID", "id", entry.ID)
			continue
		}
		seen[entry.ID] = true
		b.Launchers = append(b.Launchers, &Launcher{Entry: entry})
	}
	b.logger.Debug("launchers ready", "count", len(b.Launchers))
}

// extensions returns the file extensions l can open in the tree at root.
// Results are memoized per root, bundle and launcher.
func (b *Bundle) extensions(root string, l *Launcher) (primary, secondary []desktop.ExtInfo) {
	key := extKey{root: root, stub: b.StubName, id: l.Entry.ID}
	if cached, ok := b.extCache[key]; ok {
		return cached.primary, cached.secondary
	}
	primary, secondary = desktop.Extensions(filepath.Join(root, b.Arch.Subdir()), l.Entry.MimeTypes, b.logger)
	b.extCache[key] = extInfo{primary: primary, secondary: secondary}
	return primary, secondary
}
