// Package bundle turns a bundle spec into a portable archive and an
// installer for one native Windows target.
package bundle

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/styrene/pkg/arch"
	"github.com/provide-io/styrene/pkg/archive"
	"github.com/provide-io/styrene/pkg/desktop"
	styreneerrors "github.com/provide-io/styrene/pkg/errors"
	"github.com/provide-io/styrene/pkg/launcher"
	"github.com/provide-io/styrene/pkg/pacman"
	"github.com/provide-io/styrene/pkg/runner"
	"github.com/provide-io/styrene/pkg/textutil"
)

const (
	DefaultURL       = "http://msys2.github.io"
	DefaultPublisher = "MSYS2"
)

var (
	stubNameRe = regexp.MustCompile(`^[\p{L}\p{N}_+-]+$`)
	emailRe    = regexp.MustCompile(`\s*<[^@>]+@[^>]+>\s*`)
	digitsRe   = regexp.MustCompile(`\d+`)
)

// Deps are the collaborators a bundle build uses.
type Deps struct {
	Runner     runner.Runner
	Comparator pacman.VersionComparator
	// PkgDirs are searched for local package files before the remote
	// repositories.
	PkgDirs []string
	Format  archive.Format
	Logger  hclog.Logger
}

// Launcher is one validated launcher and what the build made for it.
type Launcher struct {
	Entry    *desktop.Entry
	Strategy launcher.Strategy
	// Icon is the installed icon name, or "" when none was installed.
	Icon string
	Exe  string
}

type extKey struct{ root, stub, id string }

type extInfo struct{ primary, secondary []desktop.ExtInfo }

// Bundle is a bundle spec resolved for one target.
type Bundle struct {
	Spec        *Spec
	Arch        arch.Arch
	StubName    string
	MainPackage string
	Metadata    pacman.Metadata

	Version      string
	VersionMajor int
	VersionMinor int
	DisplayName  string
	Description  string
	URL          string
	Publisher    string

	// Icon is the first installed launcher icon; it also brands the
	// installer.
	Icon      string
	Launchers []*Launcher

	deps     Deps
	logger   hclog.Logger
	extCache map[extKey]extInfo
}

// New validates spec for target a and fills in the bundle properties,
// querying pacman for the main package's metadata.
func New(ctx context.Context, spec *Spec, a arch.Arch, deps Deps) (*Bundle, error) {
	if deps.Logger == nil {
		deps.Logger = hclog.NewNullLogger()
	}
	if deps.Format.Name == "" {
		deps.Format = archive.Zip
	}
	if deps.Comparator == nil {
		deps.Comparator = pacman.VercmpComparator{Runner: deps.Runner}
	}

	packages := spec.List("packages")
	if len(packages) == 0 {
		return nil, styreneerrors.Specf("%s: [%s] packages is empty", spec.Path, MainSection)
	}

	stub, ok := spec.Get("filename_stub")
	if !ok || stub == "" {
		stub = textutil.Substitute(packages[0], map[string]string{"pkg_prefix": ""})
	}
	if !stubNameRe.MatchString(stub) {
		return nil, styreneerrors.Specf("cannot use %q for naming things: "+
			"set [%s] filename_stub to letters, numbers, _ or - only", stub, MainSection)
	}

	b := &Bundle{
		Spec:        spec,
		Arch:        a,
		StubName:    stub + a.BundleSuffix(),
		MainPackage: textutil.Substitute(packages[0], a.Substs()),
		deps:        deps,
		extCache:    map[extKey]extInfo{},
	}
	b.logger = deps.Logger.Named(b.StubName)

	md, err := pacman.QueryMetadata(ctx, deps.Runner, b.MainPackage)
	if err != nil {
		return nil, fmt.Errorf("querying metadata for %s: %w", b.MainPackage, err)
	}
	b.Metadata = md
	b.logger.Info("📋 got package metadata", "package", b.MainPackage, "version", md.Get("version", ""))

	b.Version = md.Get("version", "0")
	if v, ok := spec.Get("version"); ok {
		b.Version = v
	}
	b.VersionMajor, b.VersionMinor = ParseVersion(b.Version)

	b.DisplayName = b.StubName
	if d, ok := spec.Get("display_name"); ok && d != "" {
		b.DisplayName = d
		if a != arch.MINGW64 {
			b.DisplayName += " (w32)"
		}
	}

	b.Description = b.DisplayName
	if d, ok := md["description"]; ok {
		b.Description = strings.TrimSpace(d)
	}
	if d, ok := spec.Get("description"); ok {
		b.Description = d
	}

	b.URL = strings.TrimSpace(md.Get("url", DefaultURL))
	if u, ok := spec.Get("url"); ok {
		b.URL = u
	}

	b.Publisher = DefaultPublisher
	if p, ok := md["packager"]; ok {
		b.Publisher = strings.TrimSpace(emailRe.ReplaceAllString(p, " "))
	}
	if p, ok := spec.Get("publisher"); ok {
		b.Publisher = p
	}

	return b, nil
}

// ParseVersion takes the first two runs of digits in version as major
// and minor. Missing parts are 0.
func ParseVersion(version string) (major, minor int) {
	parts := digitsRe.FindAllString(version, 2)
	if len(parts) > 0 {
		major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}

// Packages returns the spec's package list with placeholders filled in
// and duplicates dropped.
func (b *Bundle) Packages() []string {
	return textutil.Uniq(b.substList("packages"))
}

func (b *Bundle) substList(key string) []string {
	v, _ := b.Spec.Get(key)
	return strings.Fields(textutil.Substitute(v, b.Arch.Substs()))
}

func (b *Bundle) info() launcher.BundleInfo {
	return launcher.BundleInfo{
		StubName:     b.StubName,
		DisplayName:  b.DisplayName,
		Publisher:    b.Publisher,
		Version:      b.Version,
		VersionMajor: b.VersionMajor,
		VersionMinor: b.VersionMinor,
		Arch:         b.Arch,
	}
}
