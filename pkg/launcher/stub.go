package launcher

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/styrene/internal/fsutil"
	"github.com/provide-io/styrene/internal/workenv"
	"github.com/provide-io/styrene/pkg/arch"
	"github.com/provide-io/styrene/pkg/desktop"
	styreneerrors "github.com/provide-io/styrene/pkg/errors"
	"github.com/provide-io/styrene/pkg/ico"
	"github.com/provide-io/styrene/pkg/runner"
)

//go:embed data/launcherstub.c
var stubSource []byte

// BundleInfo is what a stub needs to know about its bundle.
type BundleInfo struct {
	StubName     string
	DisplayName  string
	Publisher    string
	Version      string
	VersionMajor int
	VersionMinor int
	Arch         arch.Arch
}

// StubBuilder compiles launcher stubs with gcc.
type StubBuilder struct {
	Runner runner.Runner
	Logger hclog.Logger
}

var compileFlags = []string{"-municode", "-std=c11"}

// Build compiles entry's stub and installs it as <root>/<id>.exe. The
// icon, if one was installed for entry, is linked in; failing to build
// the resource object only costs the icon and version information.
func (b *StubBuilder) Build(ctx context.Context, root string, bundle BundleInfo, entry *desktop.Entry, s Strategy) (string, error) {
	logger := b.Logger.With("launcher", entry.ID)
	exeName := entry.ID + ".exe"
	appID := AppID(bundle.StubName, entry.ID, bundle.Version)
	logger.Info("🔨 building launcher", "exe", exeName, "mode", s.Mode)

	if s.Mode == Helper {
		if _, err := WriteHelperScript(root, entry, logger); err != nil {
			return "", fmt.Errorf("writing helper script for %s: %w", entry.ID, err)
		}
	}

	tmp, cleanup, err := workenv.Scratch("stub-" + entry.ID + "-*")
	if err != nil {
		return "", err
	}
	defer cleanup()

	header, err := ConfigHeader(s, HelperScriptPath(entry), appID, entry.Cmdline)
	if err != nil {
		return "", fmt.Errorf("rendering config.h: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "config.h"), header, 0o644); err != nil {
		return "", err
	}
	cName := entry.ID + ".c"
	if err := os.WriteFile(filepath.Join(tmp, cName), stubSource, 0o644); err != nil {
		return "", err
	}

	if _, err := runner.Check(ctx, b.Runner, runner.Command{
		Name: "gcc",
		Args: append(append([]string{}, compileFlags...), "-c", cName),
		Dir:  tmp,
	}); err != nil {
		return "", err
	}
	objects := []string{entry.ID + ".o"}

	icoPath := ""
	if entry.Icon != "" {
		if p := ico.Path(root, entry.Icon); fileExists(p) {
			icoPath = p
		}
	}
	info := ResourceInfo{
		AppID:        appID,
		Name:         entry.Name,
		Comment:      entry.Comment,
		ExeName:      exeName,
		ProductName:  bundle.DisplayName,
		Publisher:    bundle.Publisher,
		Version:      bundle.Version,
		VersionMajor: bundle.VersionMajor,
		VersionMinor: bundle.VersionMinor,
	}
	if err := WriteResourceObject(filepath.Join(tmp, "resources.o"), icoPath, info, bundle.Arch, logger); err != nil {
		logger.Warn("⚠️ resource object failed, stub will have no icon", "error", err)
	} else {
		objects = append(objects, "resources.o")
	}

	link := append(append([]string{}, compileFlags...), "-mwindows", "-o", exeName)
	link = append(link, objects...)
	if _, err := runner.Check(ctx, b.Runner, runner.Command{Name: "gcc", Args: link, Dir: tmp}); err != nil {
		return "", err
	}

	built := filepath.Join(tmp, exeName)
	if !fileExists(built) {
		return "", styreneerrors.Tool([]string{"gcc", "-o", exeName}, fmt.Errorf("expected output %s is missing", built))
	}
	final := filepath.Join(root, exeName)
	if err := fsutil.CopyFile(built, final, logger); err != nil {
		return "", fmt.Errorf("installing %s: %w", exeName, err)
	}

	logger.Info("✅ launcher installed", "path", final)
	return final, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
