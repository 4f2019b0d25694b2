package nsis

import (
	"bytes"
	_ "embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"text/template"

	"github.com/provide-io/styrene/pkg/arch"
	"github.com/provide-io/styrene/pkg/ico"
	"github.com/provide-io/styrene/pkg/launcher"
	"github.com/provide-io/styrene/pkg/textutil"
)

//go:embed templates/bundle.nsi
var bundleTemplate string

var scriptTemplate = template.Must(template.New("bundle.nsi").Parse(bundleTemplate))

// Bundle carries the installer-level values. Strings are raw; Script
// escapes them.
type Bundle struct {
	StubName     string
	DisplayName  string
	Description  string
	Version      string
	VersionMajor int
	VersionMinor int
	Publisher    string
	URL          string
	// Icon is the installed bundle icon name without extension, or "".
	Icon string
	Arch arch.Arch
	// SizeKiB is the estimated installed size.
	SizeKiB int64
}

// InstallerName is the file makensis writes for a bundle.
func InstallerName(stubName, version string) string {
	return fmt.Sprintf("%s-%s-installer.exe", stubName, version)
}

type scriptData struct {
	StubName       string
	RegName        string
	DisplayName    string
	Description    string
	Version        string
	Publisher      string
	URL            string
	OutputFileName string
	Icon           string
	IconsSubdir    string
	ScriptsSubdir  string
	MsystemSubdir  string
	IconFragment   string
	VersionMajor   int
	VersionMinor   int
	Bits           int
	BundleSize     int64

	InstallFragments   string
	UninstallFragments string
	AssocFragments     string
	UnassocFragments   string
	ClosingFragments   string
}

// Script renders the installer script for b. Fragments are sorted into
// place by purpose, keeping their relative order, and the generator's
// closing sections are appended.
func (g *Generator) Script(b Bundle, frags []Fragment) ([]byte, error) {
	byPurpose := map[Purpose][]Fragment{}
	for _, f := range frags {
		byPurpose[f.Purpose] = append(byPurpose[f.Purpose], f)
	}

	esc := textutil.NSISEscape
	folder := `$SMPROGRAMS\` + esc(g.Folder)
	d := scriptData{
		StubName:       esc(b.StubName),
		RegName:        esc(b.StubName),
		DisplayName:    esc(b.DisplayName),
		Description:    esc(b.Description),
		Version:        esc(b.Version),
		Publisher:      esc(b.Publisher),
		URL:            esc(b.URL),
		OutputFileName: esc(InstallerName(b.StubName, b.Version)),
		Icon:           esc(b.Icon),
		IconsSubdir:    esc(ico.Subdir),
		ScriptsSubdir:  esc(launcher.ScriptsSubdir),
		MsystemSubdir:  esc(b.Arch.Subdir()),
		VersionMajor:   b.VersionMajor,
		VersionMinor:   b.VersionMinor,
		Bits:           b.Arch.Bits(),
		BundleSize:     b.SizeKiB,

		AssocFragments:   Join(byPurpose[PurposeFileAssoc]),
		UnassocFragments: Join(byPurpose[PurposeFileUnassoc]),
		ClosingFragments: Join(append(byPurpose[PurposeClosing], g.Closing())),
	}
	if b.Icon != "" {
		d.IconFragment = fmt.Sprintf(`Icon "%s\%s\%s.ico"`, d.StubName, d.IconsSubdir, d.Icon)
	}
	if sc := byPurpose[PurposeShortcut]; len(sc) > 0 {
		d.InstallFragments = fmt.Sprintf("RMDir /r \"%s\"\nCreateDirectory \"%s\"\n", folder, folder) + Join(sc)
		d.UninstallFragments = Join(byPurpose[PurposeUninstallShortcut]) +
			fmt.Sprintf("RMDir /r \"%s\"\n", folder)
	}

	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("failed to render installer script: %w", err)
	}
	return buf.Bytes(), nil
}

// EstimateSize totals the regular files under root in KiB, plus headroom
// for the uninstaller.
func EstimateSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to size bundle tree: %w", err)
	}
	return (total+512)/1024 + 128, nil
}
