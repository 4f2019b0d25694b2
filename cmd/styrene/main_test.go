package main

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/styrene/pkg/arch"
	"github.com/provide-io/styrene/pkg/archive"
	"github.com/provide-io/styrene/pkg/bundle"
	"github.com/provide-io/styrene/pkg/config"
	"github.com/provide-io/styrene/pkg/runner"
)

func resetFlags(t *testing.T) {
	t.Helper()
	quiet, verbose, debugLog = false, false, false
	logLevel, outputDir, archName, formatName, reportPath, configPath = "", "", "", "", "", ""
	pkgDirs = nil
}

func TestCLILevel(t *testing.T) {
	resetFlags(t)
	assert.Equal(t, "", cliLevel())

	quiet = true
	assert.Equal(t, "warn", cliLevel())
	debugLog = true
	assert.Equal(t, "debug", cliLevel())
	logLevel = "trace"
	assert.Equal(t, "trace", cliLevel())
	resetFlags(t)
}

func TestResolveOptions(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	cfg := &config.Config{Build: config.BuildConfig{Arch: "mingw32", Format: "tar.gz", PkgDirs: []string{"/cfg"}}}
	pkgDirs = []string{"/cli"}

	opts, err := resolveOptions(cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, arch.MINGW32, opts.arch)
	assert.Equal(t, archive.TarGz.Name, opts.format.Name)
	assert.Equal(t, []string{"/cli", "/cfg"}, opts.pkgDirs)

	archName, formatName = "MINGW64", "zip"
	opts, err = resolveOptions(cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, arch.MINGW64, opts.arch)
	assert.Equal(t, archive.Zip.Name, opts.format.Name)

	archName = "clang64"
	_, err = resolveOptions(cfg, hclog.NewNullLogger())
	assert.Error(t, err)
}

func TestResolveOptionsAnchorsRelativePaths(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)
	base := t.TempDir()
	chdirForTest(t, base)

	outputDir, archName = "dist", "mingw64"
	pkgDirs = []string{"pkgs"}
	cfg := &config.Config{Build: config.BuildConfig{Format: "zip", PkgDirs: []string{filepath.Join("cache", "pkgs")}}}

	opts, err := resolveOptions(cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "dist"), opts.outputDir)
	assert.Equal(t, []string{filepath.Join(base, "pkgs"), filepath.Join(base, "cache", "pkgs")}, opts.pkgDirs)
}

func TestResolveOptionsFallsBackToEnv(t *testing.T) {
	resetFlags(t)
	cfg := &config.Config{Build: config.BuildConfig{Format: "zip"}}

	t.Setenv("MSYSTEM", "MINGW32")
	opts, err := resolveOptions(cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, arch.MINGW32, opts.arch)

	t.Setenv("MSYSTEM", "MSYS")
	opts, err = resolveOptions(cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, arch.MINGW64, opts.arch)
}

func TestProcessSpecsContinuesAfterFailure(t *testing.T) {
	t.Setenv("STYRENE_SCRATCH_DIR", t.TempDir())
	dir := t.TempDir()
	good := filepath.Join(dir, "good.cfg")
	require.NoError(t, os.WriteFile(good, []byte("[bundle]\npackages = {pkg_prefix}tools\n"), 0o644))
	missing := filepath.Join(dir, "missing.cfg")

	out := t.TempDir()
	rec := &runner.Recorder{Handler: func(cmd runner.Command) (runner.Result, error) {
		switch cmd.Name {
		case "pacman":
			if slices.Contains(cmd.Args, "--info") {
				return runner.Result{Stdout: []byte("Version : 3.1-1\n")}, nil
			}
		case "zip":
			return runner.Result{}, os.WriteFile(cmd.Args[1], []byte("PK"), 0o644)
		case "makensis":
			return runner.Result{}, os.WriteFile(filepath.Join(cmd.Dir, "tools-w64-3.1-1-installer.exe"), []byte("MZ"), 0o644)
		}
		return runner.Result{}, nil
	}}
	deps := bundle.Deps{Runner: rec, Format: archive.Zip, Logger: hclog.NewNullLogger()}
	opts := options{arch: arch.MINGW64, format: archive.Zip, outputDir: out}

	reports, failed := processSpecs(context.Background(), []string{missing, good}, opts, deps)
	assert.Equal(t, 1, failed)
	require.Len(t, reports, 2)
	assert.Equal(t, missing, reports[0].Spec)
	assert.NotEmpty(t, reports[0].Error)
	assert.Empty(t, reports[1].Error)
	assert.Equal(t, []string{"tools-w64-3.1-1-standalone.zip", "tools-w64-3.1-1-installer.exe"}, reports[1].Distributables)
	assert.FileExists(t, filepath.Join(out, "tools-w64-3.1-1-installer.exe"))
}
