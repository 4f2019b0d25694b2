package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/provide-io/styrene/internal/fsutil"
	"github.com/provide-io/styrene/internal/workenv"
	"github.com/provide-io/styrene/pkg/archive"
	"github.com/provide-io/styrene/pkg/desktop"
	styreneerrors "github.com/provide-io/styrene/pkg/errors"
	"github.com/provide-io/styrene/pkg/ico"
	"github.com/provide-io/styrene/pkg/launcher"
	"github.com/provide-io/styrene/pkg/nsis"
	"github.com/provide-io/styrene/pkg/pacman"
	"github.com/provide-io/styrene/pkg/postinst"
	"github.com/provide-io/styrene/pkg/runner"
	"github.com/provide-io/styrene/pkg/surplus"
	"github.com/provide-io/styrene/pkg/textutil"
)

// PostinstPackages are installed after the launchers so the
// post-install script has a shell to run in.
var PostinstPackages = []string{"bash", "coreutils"}

// Root is the absolute bundle tree location inside outputDir.
func (b *Bundle) Root(outputDir string) string {
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	return filepath.Join(outputDir, b.StubName)
}

// Build assembles the bundle tree under outputDir and writes the
// distributables next to it. It returns their paths.
func (b *Bundle) Build(ctx context.Context, outputDir string) (dist []string, err error) {
	if outputDir, err = filepath.Abs(outputDir); err != nil {
		return nil, err
	}
	root := b.Root(outputDir)
	b.logger.Info("🚀 building bundle", "root", root, "arch", b.Arch, "version", b.Version)

	release, err := workenv.Lock(root, b.logger)
	if err != nil {
		return nil, err
	}
	defer release()

	if workenv.IsComplete(root, b.StubName, b.Version) {
		b.logger.Info("♻️ rebuilding over a previous complete build")
	}

	resolver := &pacman.Resolver{
		Runner:     b.deps.Runner,
		Comparator: b.deps.Comparator,
		Dirs:       b.deps.PkgDirs,
		Logger:     b.logger.Named("pacman"),
	}

	if err := b.initTree(ctx, root); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if merr := workenv.MarkIncomplete(root, err.Error()); merr != nil {
				b.logger.Warn("⚠️ failed to write build marker", "error", merr)
			}
		}
	}()

	b.cleanup(root)

	packages := textutil.Uniq(append(b.Packages(), b.Arch.PackagePrefix()+"win7appid"))
	if err := resolver.InstallPackages(ctx, root, packages); err != nil {
		return nil, err
	}

	b.initLaunchers(root)
	b.installIcons(root)
	if err := b.installStubs(ctx, root); err != nil {
		return nil, err
	}

	if err := resolver.InstallPackages(ctx, root, PostinstPackages); err != nil {
		return nil, err
	}

	filter := &surplus.Filter{
		Delete:  b.substList("delete"),
		Protect: b.substList("nodelete"),
		Logger:  b.logger.Named("surplus"),
	}
	filter.Apply(root)

	if err := postinst.Write(root, b.Arch, b.postinstLaunchers(), b.logger); err != nil {
		return nil, err
	}

	workenv.Clean(root)

	if path, err := b.writeArchive(ctx, root, outputDir); err != nil {
		if !errors.Is(err, styreneerrors.ErrAsset) {
			return nil, err
		}
		b.logger.Warn("⚠️ skipping portable archive", "error", err)
	} else {
		dist = append(dist, path)
	}

	installer, err := b.writeInstaller(ctx, root, outputDir)
	if err != nil {
		return nil, err
	}
	dist = append(dist, installer)

	if err := workenv.MarkComplete(root, b.StubName, b.Version, b.Arch.String()); err != nil {
		b.logger.Warn("⚠️ failed to write build marker", "error", err)
	}
	b.logger.Info("✅ bundle built", "distributables", len(dist))
	return dist, nil
}

func (b *Bundle) initTree(ctx context.Context, root string) error {
	b.logger.Info("🌳 creating tree", "root", root)
	if err := workenv.CreateTree(root, workenv.TreeLayout); err != nil {
		return err
	}
	if err := workenv.MarkIncomplete(root, "build in progress"); err != nil {
		b.logger.Warn("⚠️ failed to write build marker", "error", err)
	}
	return pacman.RefreshDatabase(ctx, b.deps.Runner, root)
}

// cleanup removes launcher outputs left by an earlier build of the tree.
func (b *Bundle) cleanup(root string) {
	junk := []string{
		filepath.Join(root, launcher.LocationStateFile),
		filepath.Join(root, ico.Subdir),
		filepath.Join(root, launcher.ScriptsSubdir),
	}
	exes, _ := filepath.Glob(filepath.Join(root, "*.exe"))
	junk = append(junk, exes...)

	for _, p := range junk {
		info, err := os.Lstat(p)
		if err != nil {
			continue
		}
		b.logger.Debug("🧹 removing previous output", "path", p)
		if info.IsDir() {
			err = os.RemoveAll(p)
		} else {
			err = fsutil.Remove(p)
		}
		if err != nil {
			b.logger.Warn("⚠️ cleanup failed", "path", p, "error", err)
		}
	}
}

func (b *Bundle) installIcons(root string) {
	prefix := filepath.Join(root, b.Arch.Subdir())
	for _, l := range b.Launchers {
		name, err := ico.Install(root, prefix, l.Entry.Icon, b.logger)
		if err != nil {
			b.logger.Warn("⚠️ no icon for launcher", "launcher", l.Entry.ID, "icon", l.Entry.Icon, "error", err)
			continue
		}
		if name == "" {
			continue
		}
		l.Icon = name
		if b.Icon == "" {
			b.Icon = name
		}
	}
}

func (b *Bundle) installStubs(ctx context.Context, root string) error {
	builder := &launcher.StubBuilder{Runner: b.deps.Runner, Logger: b.logger}
	for _, l := range b.Launchers {
		l.Strategy = launcher.Resolve(l.Entry, root, b.Arch, b.logger)
		exe, err := builder.Build(ctx, root, b.info(), l.Entry, l.Strategy)
		if err != nil {
			return err
		}
		l.Exe = exe
	}
	return nil
}

func (b *Bundle) postinstLaunchers() []postinst.Launcher {
	folder := textutil.WinsafeFilename(b.DisplayName)
	out := make([]postinst.Launcher, 0, len(b.Launchers))
	for _, l := range b.Launchers {
		out = append(out, postinst.Launcher{
			ID:     l.Entry.ID,
			AppID:  launcher.AppID(b.StubName, l.Entry.ID, b.Version),
			Folder: folder,
			Name:   textutil.WinsafeFilename(l.Entry.Name),
		})
	}
	return out
}

func (b *Bundle) writeArchive(ctx context.Context, root, outputDir string) (string, error) {
	name := b.deps.Format.FileName(b.StubName, b.Metadata.Get("version", "0"))
	out := filepath.Join(outputDir, name)
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("removing old archive: %w", err)
	}
	w := &archive.Writer{Runner: b.deps.Runner, Logger: b.logger}
	if err := w.Write(ctx, root, out, b.deps.Format); err != nil {
		return "", err
	}
	return out, nil
}

// Fragments returns the installer fragments for the bundle's launchers.
// Association claims go to launchers in declaration order, so every
// FileAssoc is generated before any FileUnassoc.
func (b *Bundle) Fragments(g *nsis.Generator, root string) []nsis.Fragment {
	var frags []nsis.Fragment
	for _, l := range b.Launchers {
		frags = append(frags, g.Shortcut(l.Entry), g.UninstallShortcut(l.Entry))
	}
	for _, l := range b.Launchers {
		primary, secondary := b.extensions(root, l)
		frags = append(frags, g.FileAssoc(l.Entry, primary, secondary))
	}
	for _, l := range b.Launchers {
		primary, secondary := b.extensions(root, l)
		all := append(append([]desktop.ExtInfo{}, primary...), secondary...)
		frags = append(frags, g.FileUnassoc(l.Entry, all))
	}
	return frags
}

func (b *Bundle) writeInstaller(ctx context.Context, root, outputDir string) (string, error) {
	size, err := nsis.EstimateSize(root)
	if err != nil {
		return "", err
	}

	g := nsis.NewGenerator(b.DisplayName)
	script, err := g.Script(nsis.Bundle{
		StubName:     b.StubName,
		DisplayName:  b.DisplayName,
		Description:  b.Description,
		Version:      b.Version,
		VersionMajor: b.VersionMajor,
		VersionMinor: b.VersionMinor,
		Publisher:    b.Publisher,
		URL:          b.URL,
		Icon:         b.Icon,
		Arch:         b.Arch,
		SizeKiB:      size,
	}, b.Fragments(g, root))
	if err != nil {
		return "", err
	}

	nsiPath := filepath.Join(outputDir, b.StubName+".nsi")
	b.logger.Info("📝 writing installer script", "path", nsiPath)
	if err := fsutil.WriteFile(nsiPath, script, 0o644, b.logger); err != nil {
		return "", err
	}

	installer := filepath.Join(outputDir, nsis.InstallerName(b.StubName, b.Version))
	os.Remove(installer)
	if _, err := runner.Check(ctx, b.deps.Runner, runner.Command{
		Name: "makensis",
		Args: []string{"-V3", nsiPath},
		Dir:  outputDir,
		Env:  []string{"MSYSTEM=" + b.Arch.String()},
	}); err != nil {
		return "", err
	}
	if info, err := os.Stat(installer); err != nil || !info.Mode().IsRegular() {
		return "", styreneerrors.Assetf("missing output: expected installer %s does not exist", installer)
	}
	return installer, nil
}
