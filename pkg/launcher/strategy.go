// Package launcher decides how each launcher starts its program and builds
// the native stub executables that do it.
package launcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/styrene/pkg/arch"
	"github.com/provide-io/styrene/pkg/desktop"
)

// Mode is how a stub starts the launcher's program.
type Mode int

const (
	// Helper runs the command line through bash and a helper script.
	Helper Mode = iota
	// Direct starts a native executable with the remaining arguments.
	Direct
)

func (m Mode) String() string {
	if m == Direct {
		return "direct"
	}
	return "helper"
}

// Strategy is the resolved launch plan for one launcher.
type Strategy struct {
	Mode Mode
	// ResolvedPath is the program's backslash path relative to the bundle
	// root, e.g. mingw64\bin\gimp.exe. Empty if the program was not found.
	ResolvedPath string
	Args         []string
	Terminal     bool
}

// SearchPaths are tried in order, relative to the architecture prefix.
var SearchPaths = [][]string{
	{"local", "bin"},
	{"bin"},
}

var searchExts = []string{".exe", ""}

// FindExe looks for name, then name.exe, in SearchPaths below prefix.
// name may contain subdirectories but must stay below the search path.
// The result is a backslash path relative to prefix, or "".
func FindExe(prefix, name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) == 0 || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) || strings.Contains(name, ":") {
		return ""
	}
	for _, p := range parts {
		if p == "." || p == ".." {
			return ""
		}
	}
	for _, ext := range searchExts {
		for _, elems := range SearchPaths {
			rel := append(append([]string{}, elems...), parts...)
			rel[len(rel)-1] += ext
			info, err := os.Stat(filepath.Join(prefix, filepath.Join(rel...)))
			if err == nil && info.Mode().IsRegular() {
				return strings.Join(rel, `\`)
			}
		}
	}
	return ""
}

// Resolve works out how entry's stub should start its program inside the
// bundle tree at root.
func Resolve(entry *desktop.Entry, root string, a arch.Arch, logger hclog.Logger) Strategy {
	s := Strategy{Mode: Helper, Terminal: entry.Terminal}

	if found := FindExe(filepath.Join(root, a.Subdir()), entry.Program()); found != "" {
		s.ResolvedPath = a.Subdir() + `\` + found
		s.Args = append([]string{}, entry.Cmdline[1:]...)
	}

	if !entry.Terminal && strings.HasSuffix(strings.ToLower(s.ResolvedPath), ".exe") {
		s.Mode = Direct
		s.Args = stripFieldCodes(s.Args)
		logger.Info("🎯 launcher will start its program directly",
			"launcher", entry.ID,
			"exe", s.ResolvedPath)
		return s
	}

	switch {
	case entry.Terminal:
		logger.Info("🐚 launcher will run its command in a terminal and wait",
			"launcher", entry.ID,
			"cmdline", entry.Exec)
	default:
		logger.Warn("⚠️ launcher needs bash despite Terminal=false",
			"launcher", entry.ID,
			"cmdline", entry.Exec,
			"hint", "override Exec so that it starts a .exe directly")
	}
	return s
}

// AppID is the Windows AppUserModelID used for a launcher's shortcut and
// process.
func AppID(stubName, launcherID, version string) string {
	return "MSYS2." + stubName + "." + launcherID + "." + version
}

// fieldCodes are the desktop Exec placeholders. The file and URL codes take
// the stub's own arguments; the rest are dropped.
var fieldCodes = map[string]bool{
	"%f": true, "%F": true, "%u": true, "%U": true,
	"%i": false, "%c": false, "%k": false,
	"%d": false, "%D": false, "%n": false, "%N": false, "%v": false, "%m": false,
}

func isFileCode(tok string) bool {
	return fieldCodes[tok]
}

func stripFieldCodes(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if _, ok := fieldCodes[a]; ok {
			continue
		}
		out = append(out, strings.ReplaceAll(a, "%%", "%"))
	}
	return out
}
