package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
)

const version = "0.4.0"

const (
	exitOK       = 0
	exitNoInput  = 1
	exitFailures = 2
)

var (
	quiet      bool
	verbose    bool
	debugLog   bool
	logLevel   string
	outputDir  string
	archName   string
	pkgDirs    []string
	formatName string
	reportPath string
	configPath string
	rootCmd    *cobra.Command
	versionFlg bool
)

func buildTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "styrene [options] spec1.cfg ...",
		Short: "Bundle MSYS2 packages into installers and portable archives",
		Long: `Creates distributable installers and portable archives by bundling
together MSYS2 packages.

Normally a temporary directory is used for building, and the
distributables are then copied into the current directory. The
temporary directory is deleted afterwards.

With --output-dir no temporary directory is made. The output directory
is created if needed and everything is kept there, including the bundle
tree, for inspection and testing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlg {
				printVersion()
				return nil
			}
			if len(args) == 0 {
				_ = cmd.Help()
				os.Exit(exitNoInput)
			}
			os.Exit(run(cmd.Context(), args))
			return nil
		},
	}

	f := rootCmd.Flags()
	f.BoolVarP(&quiet, "quiet", "q", false, "log errors and warnings only")
	f.BoolVarP(&verbose, "verbose", "v", false, "log detailed information about processing (default)")
	f.BoolVar(&debugLog, "debug", false, "log lengthy debugging information")
	f.StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error; json:<level> for JSON)")
	f.StringVarP(&outputDir, "output-dir", "o", "", "where to store output, created if needed")
	f.StringVar(&archName, "arch", "", "target: MINGW64 or MINGW32 (default from config, then $MSYSTEM)")
	f.StringArrayVar(&pkgDirs, "pkgdir", nil, "directory of local package files, searched before the repositories (repeatable)")
	f.StringVar(&formatName, "format", "", "portable archive format: zip, tar.gz or tar.bz2")
	f.StringVar(&reportPath, "report", "", "write a YAML build report to this file")
	f.StringVar(&configPath, "config", "", "config file (default: styrene/config.toml in the XDG config dirs)")
	f.BoolVarP(&versionFlg, "version", "V", false, "show version information")
}

func printVersion() {
	fmt.Printf("styrene %s\n", version)
	fmt.Printf("Built: %s\n", buildTimestamp())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailures)
	}
}
