package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/styrene/internal/fsutil"
	"github.com/provide-io/styrene/pkg/arch"
	"github.com/provide-io/styrene/pkg/archive"
	"github.com/provide-io/styrene/pkg/bundle"
	"github.com/provide-io/styrene/pkg/config"
	"github.com/provide-io/styrene/pkg/logging"
	"github.com/provide-io/styrene/pkg/pacman"
	"github.com/provide-io/styrene/pkg/runner"
)

// cliLevel maps the verbosity switches to a level; --log-level wins.
func cliLevel() string {
	switch {
	case logLevel != "":
		return logLevel
	case debugLog:
		return "debug"
	case quiet:
		return "warn"
	case verbose:
		return "info"
	}
	return ""
}

func run(ctx context.Context, specs []string) int {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "styrene: %v\n", err)
		return exitFailures
	}

	level, jsonFormat, source := logging.ResolveLevel(cliLevel(), cfg.Log.Level)
	logger := logging.NewLogger(logging.Options{
		Name:  "styrene",
		Level: level,
		JSON:  jsonFormat || cfg.Log.JSON,
	})
	logger.Debug("log level", "level", level, "source", source)

	opts, err := resolveOptions(cfg, logger)
	if err != nil {
		logger.Error("❌ bad options", "error", err)
		return exitFailures
	}

	r := runner.NewExecRunner(logger.Named("exec"), cfg.ToolPaths())
	deps := bundle.Deps{
		Runner:     r,
		Comparator: pacman.VercmpComparator{Runner: r},
		PkgDirs:    opts.pkgDirs,
		Format:     opts.format,
		Logger:     logger,
	}

	reports, failed := processSpecs(ctx, specs, opts, deps)

	if reportPath != "" {
		if err := bundle.WriteReport(reportPath, reports); err != nil {
			logger.Error("❌ report not written", "path", reportPath, "error", err)
			failed++
		}
	}
	if failed > 0 {
		logger.Error("❌ some bundles failed", "failed", failed, "total", len(specs))
		return exitFailures
	}
	return exitOK
}

type options struct {
	arch      arch.Arch
	format    archive.Format
	pkgDirs   []string
	outputDir string
}

func resolveOptions(cfg *config.Config, logger hclog.Logger) (options, error) {
	opts := options{outputDir: outputDir}

	name := archName
	if name == "" {
		name = cfg.Build.Arch
	}
	switch {
	case name != "":
		a, err := arch.Parse(name)
		if err != nil {
			return opts, err
		}
		opts.arch = a
	default:
		a, err := arch.FromEnv()
		if err != nil {
			logger.Warn("⚠️ no target given and MSYSTEM is not a native target, using MINGW64", "error", err)
			a = arch.MINGW64
		}
		opts.arch = a
	}

	format := formatName
	if format == "" {
		format = cfg.Build.Format
	}
	f, err := archive.ParseFormat(format)
	if err != nil {
		return opts, err
	}
	opts.format = f

	for _, dir := range append(append([]string{}, pkgDirs...), cfg.Build.PkgDirs...) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return opts, fmt.Errorf("package directory %s: %w", dir, err)
		}
		opts.pkgDirs = append(opts.pkgDirs, abs)
	}
	if opts.outputDir != "" {
		abs, err := filepath.Abs(opts.outputDir)
		if err != nil {
			return opts, fmt.Errorf("output directory %s: %w", opts.outputDir, err)
		}
		opts.outputDir = abs
	}
	return opts, nil
}

// processSpecs builds each spec in turn. A failed spec is logged and the
// rest still run.
func processSpecs(ctx context.Context, specs []string, opts options, deps bundle.Deps) ([]bundle.Report, int) {
	var reports []bundle.Report
	failed := 0
	for _, path := range specs {
		report, err := processSpec(ctx, path, opts, deps)
		if err != nil {
			deps.Logger.Error("❌ failed to build bundle", "spec", path, "error", err)
			report.Spec = path
			report.Error = err.Error()
			failed++
		}
		reports = append(reports, report)
	}
	return reports, failed
}

func processSpec(ctx context.Context, path string, opts options, deps bundle.Deps) (bundle.Report, error) {
	deps.Logger.Info("📄 processing bundle spec", "spec", path, "arch", opts.arch.String())

	spec, err := bundle.LoadSpec(path)
	if err != nil {
		return bundle.Report{}, err
	}
	b, err := bundle.New(ctx, spec, opts.arch, deps)
	if err != nil {
		return bundle.Report{}, err
	}

	if opts.outputDir != "" {
		if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
			return bundle.Report{}, fmt.Errorf("creating output directory: %w", err)
		}
		dist, err := b.Build(ctx, opts.outputDir)
		if err != nil {
			return b.Report(nil), err
		}
		return b.Report(dist), nil
	}

	tmp, err := os.MkdirTemp("", "styrene-*")
	if err != nil {
		return bundle.Report{}, fmt.Errorf("creating build directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	dist, err := b.Build(ctx, tmp)
	if err != nil {
		return b.Report(nil), err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return b.Report(nil), err
	}
	var copied []string
	for _, d := range dist {
		final := filepath.Join(cwd, filepath.Base(d))
		if err := fsutil.CopyFile(d, final, deps.Logger); err != nil {
			return b.Report(copied), fmt.Errorf("copying %s: %w", filepath.Base(d), err)
		}
		deps.Logger.Info("📦 distributable ready", "path", final)
		copied = append(copied, final)
	}
	return b.Report(copied), nil
}
