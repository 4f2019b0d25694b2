package launcher

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/kballard/go-shellquote"

	"github.com/provide-io/styrene/internal/fsutil"
	"github.com/provide-io/styrene/pkg/desktop"
)

// ScriptsSubdir holds generated shell scripts, relative to the bundle root.
const ScriptsSubdir = "_scripts"

// HelperScriptPath returns the POSIX path, as seen by the bundle's bash, of
// entry's helper script.
func HelperScriptPath(entry *desktop.Entry) string {
	return path.Join("/", ScriptsSubdir, entry.ID+"-launch.sh")
}

// HelperScript renders the shell script a helper-mode stub runs. The file
// and URL field codes become the script's arguments; other field codes are
// removed.
func HelperScript(entry *desktop.Entry) string {
	var words []string
	for _, tok := range entry.Cmdline {
		if isFileCode(tok) {
			words = append(words, `"$@"`)
			continue
		}
		if _, ok := fieldCodes[tok]; ok {
			continue
		}
		words = append(words, shellquote.Join(strings.ReplaceAll(tok, "%%", "%")))
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("# Launch helper for " + entry.ID + "\n")
	b.WriteString("exec " + strings.Join(words, " ") + "\n")
	return b.String()
}

// WriteHelperScript installs entry's helper script into the bundle tree.
func WriteHelperScript(root string, entry *desktop.Entry, logger hclog.Logger) (string, error) {
	dir := filepath.Join(root, ScriptsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, entry.ID+"-launch.sh")
	if err := fsutil.WriteFile(p, []byte(HelperScript(entry)), 0o755, logger); err != nil {
		return "", err
	}
	logger.Debug("helper script written", "launcher", entry.ID, "path", p)
	return p, nil
}
