// Package postinst writes the scripts that configure a bundle tree after
// it is unpacked or installed somewhere new.
package postinst

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/styrene/internal/fsutil"
	"github.com/provide-io/styrene/pkg/arch"
	"github.com/provide-io/styrene/pkg/launcher"
	"github.com/provide-io/styrene/pkg/textutil"
)

const (
	ShellScript = "postinst.sh"
	CmdScript   = "postinst.cmd"
)

var (
	//go:embed templates/postinst.sh
	shTemplateText string
	//go:embed templates/postinst.cmd
	cmdTemplateText string

	shTemplate  = template.Must(template.New(ShellScript).Parse(shTemplateText))
	cmdTemplate = template.Must(template.New(CmdScript).Parse(cmdTemplateText))
)

// Launcher identifies a launcher's Start Menu shortcut for AppID tagging.
type Launcher struct {
	ID    string
	AppID string
	// Folder and Name are Windows-safe shortcut path parts.
	Folder string
	Name   string
}

// Fragment returns the shell snippet that stamps l's AppUserModelID onto
// its shortcut using win7appid.
func Fragment(l Launcher, a arch.Arch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", l.ID)
	fmt.Fprintf(&b, "win7appid=\"/%s/bin/win7appid.exe\"\n", a.Subdir())
	fmt.Fprintf(&b, "shortcut=\"$START_MENU_PROGRAMS/%s/%s.lnk\"\n", textutil.ShEscape(l.Folder), textutil.ShEscape(l.Name))
	b.WriteString("if test \"x$START_MENU_PROGRAMS\" != \"x\"; then\n")
	b.WriteString("    if ! test -f \"$shortcut\"; then\n")
	b.WriteString("        echo \"warning: shortcut not installed: $shortcut\"\n")
	b.WriteString("    elif ! test -f \"$win7appid\"; then\n")
	b.WriteString("        echo \"error: missing $win7appid\"\n")
	b.WriteString("    else\n")
	fmt.Fprintf(&b, "        \"$win7appid\" \"$shortcut\" \"%s\"\n", textutil.ShEscape(l.AppID))
	b.WriteString("    fi\n")
	b.WriteString("fi")
	return b.String()
}

// Write renders both scripts into root's scripts directory. The shell
// script uses LF line endings and the batch file CRLF.
func Write(root string, a arch.Arch, launchers []Launcher, logger hclog.Logger) error {
	frags := make([]string, 0, len(launchers))
	for _, l := range launchers {
		frags = append(frags, Fragment(l, a))
	}

	var sh bytes.Buffer
	if err := shTemplate.Execute(&sh, map[string]any{
		"StateFile": launcher.LocationStateFile,
		"Fragments": frags,
	}); err != nil {
		return fmt.Errorf("failed to render %s: %w", ShellScript, err)
	}

	var cmd bytes.Buffer
	if err := cmdTemplate.Execute(&cmd, map[string]any{
		"Msystem":       a.String(),
		"ScriptsSubdir": launcher.ScriptsSubdir,
		"ShellScript":   ShellScript,
		"StateFile":     launcher.LocationStateFile,
	}); err != nil {
		return fmt.Errorf("failed to render %s: %w", CmdScript, err)
	}

	dir := filepath.Join(root, launcher.ScriptsSubdir)
	logger.Info("📝 Writing post-install scripts", "dir", dir, "launchers", len(launchers))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}
	if err := fsutil.WriteFile(filepath.Join(dir, ShellScript), sh.Bytes(), 0o755, logger); err != nil {
		return err
	}
	return fsutil.WriteFile(filepath.Join(dir, CmdScript), crlf(cmd.Bytes()), 0o755, logger)
}

func crlf(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(b, []byte("\n"), []byte("\r\n"))
}
