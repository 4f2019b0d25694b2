package bundle

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/styrene/internal/workenv"
	"github.com/provide-io/styrene/pkg/arch"
	"github.com/provide-io/styrene/pkg/archive"
	styreneerrors "github.com/provide-io/styrene/pkg/errors"
	"github.com/provide-io/styrene/pkg/launcher"
	"github.com/provide-io/styrene/pkg/pacman"
	"github.com/provide-io/styrene/pkg/runner"
)

const buildSpec = `[bundle]
packages = {pkg_prefix}myapp
    {pkg_prefix}extra
filename_stub = myapp
display_name = My App
launchers = myapp.desktop tool missing
delete = {msystem_subdir}/share/doc
    *.tmp
nodelete = keep.tmp

[tool]
Name = Tool
Exec = sh -c "echo hi"
Terminal = true
MimeType = application/x-myapp
`

const myappDesktop = `[Desktop Entry]
Type=Application
Name=My App
Comment=Does things
Icon=myapp
Exec=myapp.exe --flag "a b" %F
Terminal=false
MimeType=application/x-myapp;
`

const myappMime = `<?xml version="1.0" encoding="UTF-8"?>
<mime-info xmlns="http://www.freedesktop.org/standards/shared-mime-info">
  <mime-type type="application/x-myapp">
    <comment>MyApp document</comment>
    <glob pattern="*.myd"/>
  </mime-type>
</mime-info>
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writePNG(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, size, size))))
}

// seedTree lays out what pacman would have installed.
func seedTree(t *testing.T, root string) {
	t.Helper()
	prefix := filepath.Join(root, "mingw64")
	writeFile(t, filepath.Join(prefix, "bin", "myapp.exe"), "MZ")
	writeFile(t, filepath.Join(prefix, "share", "applications", "myapp.desktop"), myappDesktop)
	writeFile(t, filepath.Join(prefix, "share", "mime", "packages", "myapp.xml"), myappMime)
	writeFile(t, filepath.Join(prefix, "share", "doc", "myapp", "README"), "docs")
	writePNG(t, filepath.Join(prefix, "share", "icons", "hicolor", "32x32", "apps", "myapp.png"), 32)
	writePNG(t, filepath.Join(prefix, "share", "icons", "hicolor", "48x48", "apps", "myapp.png"), 48)
	writeFile(t, filepath.Join(root, "scratch.tmp"), "x")
	writeFile(t, filepath.Join(root, "keep.tmp"), "x")
	writeFile(t, filepath.Join(root, "old.exe"), "MZ")
	writeFile(t, filepath.Join(root, launcher.LocationStateFile), `C:\old`)
}

func toolRunner(installer string) *runner.Recorder {
	return &runner.Recorder{Handler: func(cmd runner.Command) (runner.Result, error) {
		switch cmd.Name {
		case "pacman":
			if slices.Contains(cmd.Args, "--info") {
				return runner.Result{Stdout: []byte(sampleMetadata)}, nil
			}
		case "gcc":
			if i := slices.Index(cmd.Args, "-o"); i >= 0 {
				return runner.Result{}, os.WriteFile(filepath.Join(cmd.Dir, cmd.Args[i+1]), []byte("MZ"), 0o755)
			}
		case "zip":
			return runner.Result{}, os.WriteFile(cmd.Args[1], []byte("PK"), 0o644)
		case "makensis":
			if installer != "" {
				return runner.Result{}, os.WriteFile(filepath.Join(cmd.Dir, installer), []byte("MZ"), 0o755)
			}
		}
		return runner.Result{}, nil
	}}
}

func newTestBundle(t *testing.T, rec *runner.Recorder) (*Bundle, string) {
	t.Helper()
	t.Setenv("STYRENE_SCRATCH_DIR", t.TempDir())
	spec := writeSpec(t, buildSpec)
	b, err := New(context.Background(), spec, arch.MINGW64, Deps{
		Runner: rec,
		Format: archive.Zip,
		Logger: hclog.NewNullLogger(),
	})
	require.NoError(t, err)

	out := t.TempDir()
	seedTree(t, b.Root(out))
	return b, out
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestBuildEndToEnd(t *testing.T) {
	rec := toolRunner("myapp-w64-1.0-1-installer.exe")
	b, out := newTestBundle(t, rec)
	root := b.Root(out)

	dist, err := b.Build(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "myapp-w64-1.0-1-standalone.zip"),
		filepath.Join(out, "myapp-w64-1.0-1-installer.exe"),
	}, dist)

	// Launchers: the .desktop one runs directly, the section one through bash.
	require.Len(t, b.Launchers, 2)
	app, tool := b.Launchers[0], b.Launchers[1]
	assert.Equal(t, "myapp", app.Entry.ID)
	assert.Equal(t, launcher.Direct, app.Strategy.Mode)
	assert.Equal(t, `mingw64\bin\myapp.exe`, app.Strategy.ResolvedPath)
	assert.Equal(t, []string{"--flag", "a b"}, app.Strategy.Args)
	assert.Equal(t, "tool", tool.Entry.ID)
	assert.Equal(t, launcher.Helper, tool.Strategy.Mode)

	assert.Equal(t, "myapp", b.Icon)
	assert.True(t, exists(filepath.Join(root, "_icons", "myapp.ico")))
	assert.True(t, exists(filepath.Join(root, "myapp.exe")))
	assert.True(t, exists(filepath.Join(root, "tool.exe")))
	assert.True(t, exists(filepath.Join(root, "_scripts", "tool-launch.sh")))
	assert.True(t, exists(filepath.Join(root, "_scripts", "postinst.sh")))
	assert.True(t, exists(filepath.Join(root, "_scripts", "postinst.cmd")))

	// Previous outputs and surplus files are gone; protected ones stay.
	assert.False(t, exists(filepath.Join(root, "old.exe")))
	assert.False(t, exists(filepath.Join(root, launcher.LocationStateFile)))
	assert.False(t, exists(filepath.Join(root, "mingw64", "share", "doc")))
	assert.False(t, exists(filepath.Join(root, "scratch.tmp")))
	assert.True(t, exists(filepath.Join(root, "keep.tmp")))

	// Both launchers declare the type; the first one owns the extension.
	nsi, err := os.ReadFile(filepath.Join(out, "myapp-w64.nsi"))
	require.NoError(t, err)
	script := string(nsi)
	assert.Contains(t, script, `!insertmacro FileAssoc "myd" "myapp.myd" "MyApp document"`)
	assert.NotContains(t, script, `"tool.myd"`)
	assert.Contains(t, script, `Icon "myapp-w64\_icons\myapp.ico"`)
	assert.Contains(t, script, `CreateShortcut "$SMPROGRAMS\My App\Tool.lnk" "$INSTDIR\tool.exe"`)
	assert.Contains(t, script, `"Publisher" "Jane Doe"`)

	pacmanCalls := rec.Named("pacman")
	require.Len(t, pacmanCalls, 4)
	assert.Equal(t, []string{"--sync", "--refresh", "--quiet", "--root", root, "--noprogressbar"}, pacmanCalls[1].Args)
	assert.Equal(t,
		[]string{"mingw-w64-x86_64-myapp", "mingw-w64-x86_64-extra", "mingw-w64-x86_64-win7appid"},
		pacmanCalls[2].Args[len(pacmanCalls[2].Args)-3:])
	assert.Equal(t, []string{"bash", "coreutils"}, pacmanCalls[3].Args[len(pacmanCalls[3].Args)-2:])

	makensis := rec.Named("makensis")
	require.Len(t, makensis, 1)
	assert.Equal(t, []string{"-V3", filepath.Join(out, "myapp-w64.nsi")}, makensis[0].Args)
	assert.Equal(t, []string{"MSYSTEM=MINGW64"}, makensis[0].Env)

	assert.True(t, workenv.IsComplete(root, "myapp-w64", "1.0-1"))
	assert.False(t, exists(workenv.LockPath(root)))

	report := b.Report(dist)
	assert.Equal(t, []string{"myapp-w64-1.0-1-standalone.zip", "myapp-w64-1.0-1-installer.exe"}, report.Distributables)
	require.Len(t, report.Launchers, 2)
	assert.Equal(t, "direct", report.Launchers[0].Mode)
	assert.Equal(t, "myapp.exe", report.Launchers[0].Exe)
	assert.Equal(t, "helper", report.Launchers[1].Mode)

	reportPath := filepath.Join(out, "report.yaml")
	require.NoError(t, WriteReport(reportPath, []Report{report, {Spec: "broken.cfg", Error: "boom"}}))
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "bundles:\n"))
	assert.Contains(t, string(data), "stub_name: myapp-w64")
	assert.Contains(t, string(data), "error: boom")
}

func TestBuildRelativeOutputDir(t *testing.T) {
	rec := toolRunner("myapp-w64-1.0-1-installer.exe")
	b, out := newTestBundle(t, rec)
	chdirForTest(t, filepath.Dir(out))

	dist, err := b.Build(context.Background(), filepath.Base(out))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "myapp-w64-1.0-1-standalone.zip"),
		filepath.Join(out, "myapp-w64-1.0-1-installer.exe"),
	}, dist)

	for _, c := range rec.Calls() {
		if c.Dir != "" {
			assert.True(t, filepath.IsAbs(c.Dir), "%s dir %s", c.Name, c.Dir)
		}
	}
	makensis := rec.Named("makensis")
	require.Len(t, makensis, 1)
	assert.Equal(t, filepath.Join(out, "myapp-w64.nsi"), makensis[0].Args[1])
}

func TestBuildMissingInstallerIsFatal(t *testing.T) {
	rec := toolRunner("")
	b, out := newTestBundle(t, rec)

	_, err := b.Build(context.Background(), out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, styreneerrors.ErrAsset))
	assert.True(t, exists(filepath.Join(b.Root(out), ".styrene-build.incomplete")))
	assert.False(t, workenv.IsComplete(b.Root(out), b.StubName, b.Version))
}

func TestBuildRefusesLockedTree(t *testing.T) {
	rec := toolRunner("myapp-w64-1.0-1-installer.exe")
	b, out := newTestBundle(t, rec)
	require.NoError(t, os.WriteFile(workenv.LockPath(b.Root(out)), []byte(strconv.Itoa(os.Getppid())), 0o644))

	_, err := b.Build(context.Background(), out)
	var locked *workenv.ErrLocked
	require.ErrorAs(t, err, &locked)
	assert.Len(t, rec.Named("pacman"), 1)
	assert.False(t, exists(filepath.Join(b.Root(out), ".styrene-build.incomplete")))
}

func TestBuildStopsOnToolFailure(t *testing.T) {
	rec := toolRunner("myapp-w64-1.0-1-installer.exe")
	inner := rec.Handler
	rec.Handler = func(cmd runner.Command) (runner.Result, error) {
		if cmd.Name == "gcc" {
			return runner.Result{ExitCode: 1, Stderr: []byte("myapp.c:1: error")}, nil
		}
		return inner(cmd)
	}
	b, out := newTestBundle(t, rec)

	_, err := b.Build(context.Background(), out)
	assert.True(t, errors.Is(err, styreneerrors.ErrExternalTool))
	assert.Empty(t, rec.Named("makensis"))
}

func TestBuildDefaultsToVercmp(t *testing.T) {
	rec := toolRunner("myapp-w64-1.0-1-installer.exe")
	inner := rec.Handler
	rec.Handler = func(cmd runner.Command) (runner.Result, error) {
		if cmd.Name == "vercmp" {
			return runner.Result{Stdout: []byte("1\n")}, nil
		}
		return inner(cmd)
	}
	b, out := newTestBundle(t, rec)
	assert.Equal(t, pacman.VercmpComparator{Runner: rec}, b.deps.Comparator)

	pkgs := t.TempDir()
	writeFile(t, filepath.Join(pkgs, "mingw-w64-x86_64-myapp-1.0-1-any.pkg.tar.xz"), "")
	writeFile(t, filepath.Join(pkgs, "mingw-w64-x86_64-myapp-1.1-1-any.pkg.tar.xz"), "")
	b.deps.PkgDirs = []string{pkgs}

	_, err := b.Build(context.Background(), out)
	require.NoError(t, err)
	require.Len(t, rec.Named("vercmp"), 1)

	upgrade := rec.Named("pacman")[2]
	assert.Equal(t, "--upgrade", upgrade.Args[0])
	assert.Len(t, slices.DeleteFunc(slices.Clone(upgrade.Args), func(a string) bool {
		return !strings.HasSuffix(a, ".pkg.tar.xz")
	}), 1)
}

func TestExtensionsMemoized(t *testing.T) {
	b, out := newTestBundle(t, &runner.Recorder{})
	root := b.Root(out)
	b.initLaunchers(root)
	require.NotEmpty(t, b.Launchers)

	primary, _ := b.extensions(root, b.Launchers[0])
	require.Len(t, primary, 1)
	assert.Equal(t, "myd", primary[0].Ext)

	require.NoError(t, os.RemoveAll(filepath.Join(root, "mingw64", "share", "mime")))
	again, _ := b.extensions(root, b.Launchers[0])
	assert.Equal(t, primary, again)
}
