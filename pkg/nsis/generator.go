// Package nsis generates the NSIS installer script for a bundle.
package nsis

import (
	"fmt"
	"strings"

	"github.com/provide-io/styrene/pkg/desktop"
	"github.com/provide-io/styrene/pkg/textutil"
)

// Purpose tags a fragment with where it goes in the script.
type Purpose string

const (
	PurposeShortcut          Purpose = "shortcut"
	PurposeUninstallShortcut Purpose = "uninstall-shortcut"
	PurposeFileAssoc         Purpose = "file-assoc"
	PurposeFileUnassoc       Purpose = "file-unassoc"
	PurposeClosing           Purpose = "closing"
)

// Fragment is a block of NSIS script.
type Fragment struct {
	Purpose  Purpose
	Launcher string
	Text     string
}

// ClaimMap records which launcher owns each file extension.
type ClaimMap map[string]string

// Generator emits launcher fragments for one bundle. Extension claims are
// first come, first served in the order FileAssoc is called.
type Generator struct {
	// Folder is the Start Menu folder, already made safe for Windows.
	Folder string
	Claims ClaimMap
}

// NewGenerator creates a generator for a bundle with the given display name.
func NewGenerator(displayName string) *Generator {
	return &Generator{
		Folder: textutil.WinsafeFilename(displayName),
		Claims: ClaimMap{},
	}
}

func (g *Generator) linkPath(e *desktop.Entry) string {
	return `$SMPROGRAMS\` + textutil.NSISEscape(g.Folder) + `\` +
		textutil.NSISEscape(textutil.WinsafeFilename(e.Name)) + ".lnk"
}

// Shortcut creates e's Start Menu shortcut. The icon comes from the
// launcher executable's own resources.
func (g *Generator) Shortcut(e *desktop.Entry) Fragment {
	text := fmt.Sprintf("CreateShortcut \"%s\" \"$INSTDIR\\%s.exe\" \"\" \"\" \"\" SW_SHOWMINIMIZED \"\" \"%s\"\n",
		g.linkPath(e), textutil.NSISEscape(e.ID), textutil.NSISEscape(e.Comment))
	return Fragment{Purpose: PurposeShortcut, Launcher: e.ID, Text: text}
}

// UninstallShortcut removes e's shortcut. Removing a missing file is not
// an error in NSIS, and the whole folder goes later anyway.
func (g *Generator) UninstallShortcut(e *desktop.Entry) Fragment {
	return Fragment{
		Purpose:  PurposeUninstallShortcut,
		Launcher: e.ID,
		Text:     fmt.Sprintf("Delete \"%s\"\n", g.linkPath(e)),
	}
}

// FileAssoc claims e's extensions, primary ones first, and emits one
// installer section per newly claimed extension. Secondary associations
// are optional sections, off by default.
func (g *Generator) FileAssoc(e *desktop.Entry, primary, secondary []desktop.ExtInfo) Fragment {
	var b strings.Builder
	for _, group := range []struct {
		flag string
		exts []desktop.ExtInfo
	}{{"", primary}, {"/o ", secondary}} {
		for _, ext := range group.exts {
			if _, taken := g.Claims[ext.Ext]; taken {
				continue
			}
			g.Claims[ext.Ext] = e.ID

			id := textutil.NSISEscape(e.ID)
			x := textutil.NSISEscape(ext.Ext)
			name := textutil.NSISEscape(e.Name)
			fmt.Fprintf(&b, "Section %s\"Open *.%s with %s\"\n", group.flag, x, name)
			fmt.Fprintf(&b, "    !insertmacro FileAssoc \"%s\" \"%s.%s\" \"%s\" \\\n", x, id, x, textutil.NSISEscape(ext.Description))
			fmt.Fprintf(&b, "        \"$INSTDIR\\%s.exe,0\" \"Open with %s\" \\\n", id, name)
			fmt.Fprintf(&b, "        \"$INSTDIR\\%s.exe $\\\"%%1$\\\"\"\n", id)
			b.WriteString("SectionEnd\n\n")
		}
	}
	return Fragment{Purpose: PurposeFileAssoc, Launcher: e.ID, Text: b.String()}
}

// FileUnassoc emits e's uninstall section for the extensions it still
// owns.
func (g *Generator) FileUnassoc(e *desktop.Entry, exts []desktop.ExtInfo) Fragment {
	id := textutil.NSISEscape(e.ID)
	var b strings.Builder
	fmt.Fprintf(&b, "Section \"un.AssocFiles.%s\"\n", id)
	for _, ext := range exts {
		if g.Claims[ext.Ext] != e.ID {
			continue
		}
		x := textutil.NSISEscape(ext.Ext)
		fmt.Fprintf(&b, "    !insertmacro FileUnAssoc \"%s\" \"%s.%s\"\n", x, id, x)
	}
	b.WriteString("SectionEnd\n\n")
	return Fragment{Purpose: PurposeFileUnassoc, Launcher: e.ID, Text: b.String()}
}

// Closing refreshes Explorer's icons once after install and once after
// uninstall. It is empty when no extension was claimed.
func (g *Generator) Closing() Fragment {
	if len(g.Claims) == 0 {
		return Fragment{Purpose: PurposeClosing}
	}
	return Fragment{Purpose: PurposeClosing, Text: `Section "-RefreshShellIcons"
    !insertmacro RefreshShellIcons
SectionEnd

Section "-un.RefreshShellIcons"
    !insertmacro RefreshShellIcons
SectionEnd

`}
}

// Join concatenates fragment texts in order.
func Join(frags []Fragment) string {
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(f.Text)
	}
	return b.String()
}
