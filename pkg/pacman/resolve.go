// Package pacman drives pacman to populate a bundle tree.
package pacman

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/styrene/pkg/runner"
)

// PackageVersion is a chosen version of a package. Path is set only when
// the version comes from a local package file.
type PackageVersion struct {
	Name    string
	Version string
	Path    string
}

// Plan splits the requested packages by source.
type Plan struct {
	Local  []PackageVersion
	Remote []string
}

// LocalNames returns the names of the locally satisfied packages.
func (p *Plan) LocalNames() []string {
	names := make([]string, 0, len(p.Local))
	for _, pv := range p.Local {
		names = append(names, pv.Name)
	}
	return names
}

// Resolver picks package files from local directories and installs the
// rest from the configured repositories.
type Resolver struct {
	Runner     runner.Runner
	Comparator VersionComparator
	// Dirs are scanned in order for local package files.
	Dirs   []string
	Logger hclog.Logger
}

// commonFlags are used for every install so that nothing prompts and
// package scriptlets wait for the bundle's own post-install step.
var commonFlags = []string{"--noconfirm", "--noprogressbar", "--noscriptlet"}

func candidatePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `-([^-]+-[^-]+)-any\.pkg\.tar(\.gz|\.xz)?$`)
}

// Resolve chooses, for each name, the highest local package file by the
// version comparator. Names without a local file are left for the remote
// repositories.
func (r *Resolver) Resolve(ctx context.Context, names []string) (*Plan, error) {
	plan := &Plan{}
	for _, name := range names {
		best, err := r.bestLocal(ctx, name)
		if err != nil {
			return nil, err
		}
		if best == nil {
			plan.Remote = append(plan.Remote, name)
			continue
		}
		r.Logger.Info("📦 using local package", "name", name, "version", best.Version, "path", best.Path)
		plan.Local = append(plan.Local, *best)
	}
	return plan, nil
}

func (r *Resolver) bestLocal(ctx context.Context, name string) (*PackageVersion, error) {
	re := candidatePattern(name)
	var best *PackageVersion

	for _, dir := range r.Dirs {
		dir = absPath(dir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			r.Logger.Debug("skipping package directory", "dir", dir, "error", err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			m := re.FindStringSubmatch(entry.Name())
			if m == nil {
				continue
			}
			candidate := PackageVersion{Name: name, Version: m[1], Path: filepath.Join(dir, entry.Name())}
			if best == nil {
				best = &candidate
				continue
			}
			cmp, err := r.Comparator.Compare(ctx, candidate.Version, best.Version)
			if err != nil {
				return nil, err
			}
			if cmp > 0 || (cmp == 0 && candidate.Path > best.Path) {
				best = &candidate
			}
		}
	}
	return best, nil
}

// Install runs at most two pacman transactions against root: one for the
// local files, then one for the remote names. The remote transaction
// ignores the locally installed names so it cannot replace them.
func (r *Resolver) Install(ctx context.Context, root string, plan *Plan) error {
	root = absPath(root)
	if len(plan.Local) > 0 {
		args := []string{"--upgrade", "--quiet", "--root", root}
		args = append(args, commonFlags...)
		for _, pv := range plan.Local {
			args = append(args, pv.Path)
		}
		if _, err := runner.Check(ctx, r.Runner, runner.Command{Name: "pacman", Args: args, Dir: root}); err != nil {
			return err
		}
	}

	if len(plan.Remote) > 0 {
		args := []string{"--sync", "--quiet", "--root", root, "--needed"}
		args = append(args, commonFlags...)
		if local := plan.LocalNames(); len(local) > 0 {
			args = append(args, "--ignore", strings.Join(local, ","))
		}
		args = append(args, plan.Remote...)
		if _, err := runner.Check(ctx, r.Runner, runner.Command{Name: "pacman", Args: args, Dir: root}); err != nil {
			return err
		}
	}
	return nil
}

// InstallPackages resolves and installs names into root.
func (r *Resolver) InstallPackages(ctx context.Context, root string, names []string) error {
	r.Logger.Info("📥 installing packages", "packages", strings.Join(names, " "), "root", root)
	plan, err := r.Resolve(ctx, names)
	if err != nil {
		return fmt.Errorf("resolving packages: %w", err)
	}
	return r.Install(ctx, root, plan)
}

// RefreshDatabase downloads fresh sync databases into root's package
// database.
func RefreshDatabase(ctx context.Context, r runner.Runner, root string) error {
	root = absPath(root)
	_, err := runner.Check(ctx, r, runner.Command{
		Name: "pacman",
		Args: []string{"--sync", "--refresh", "--quiet", "--root", root, "--noprogressbar"},
	})
	return err
}

// absPath anchors p at the working directory. pacman runs inside the
// tree, so relative paths would resolve against the wrong directory.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
