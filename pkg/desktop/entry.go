// Package desktop reads launcher definitions from freedesktop .desktop files
// and bundle spec sections.
package desktop

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/ini.v1"

	styreneerrors "github.com/provide-io/styrene/pkg/errors"
	"github.com/provide-io/styrene/pkg/textutil"
	"github.com/provide-io/styrene/pkg/utils/shellparse"
)

const (
	// SectionName is the .desktop group holding launcher keys.
	SectionName = "Desktop Entry"

	requiredType = "application"
)

// Entry is one launcher: a program plus its Windows integration metadata.
type Entry struct {
	ID        string
	Name      string
	Comment   string
	Icon      string
	Exec      string
	Cmdline   []string
	Terminal  bool
	MimeTypes []string
}

// LoadOptions returns the ini settings for desktop-style files. Values are
// taken raw: no inline comments, no quote stripping, no line continuation.
func LoadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		KeyValueDelimiters:      "=",
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
		IgnoreContinuation:      true,
	}
}

// ParseFile reads the "Desktop Entry" group of a .desktop file. The entry
// ID is derived from the file name.
func ParseFile(path string, logger hclog.Logger) (*Entry, error) {
	cfg, err := ini.LoadSources(LoadOptions(), path)
	if err != nil {
		return nil, styreneerrors.Spec("reading "+path, err)
	}

	section, err := cfg.GetSection(SectionName)
	if err != nil {
		return nil, styreneerrors.Specf("%s: no [%s] group", filepath.Base(path), SectionName)
	}

	values := SectionMap(section)
	if t := strings.ToLower(strings.TrimSpace(values["type"])); t != requiredType {
		logger.Warn("⚠️ desktop entry is not an application",
			"file", filepath.Base(path),
			"type", t)
	}

	entry := &Entry{}
	if err := entry.Update(values, filepath.Base(path)); err != nil {
		return nil, err
	}
	return entry, nil
}

// SectionMap returns the raw values of section keyed by lower-cased name.
func SectionMap(section *ini.Section) map[string]string {
	values := make(map[string]string, len(section.Keys()))
	for _, key := range section.Keys() {
		values[strings.ToLower(key.Name())] = key.Value()
	}
	return values
}

// Update overrides fields with any keys present in values. Key lookup
// ignores case. A non-empty id replaces the entry ID; it is normalized the
// same way as a file name.
func (e *Entry) Update(values map[string]string, id string) error {
	if id != "" {
		id = strings.TrimSpace(id)
		id = strings.TrimSuffix(id, filepath.Ext(id))
		id = textutil.WinsafeFilename(id)
		if id == "" {
			return styreneerrors.Specf("launcher ID cannot be empty")
		}
		e.ID = id
	}

	lower := make(map[string]string, len(values))
	for k, v := range values {
		lower[strings.ToLower(k)] = strings.TrimSpace(v)
	}

	if v, ok := lower["name"]; ok {
		e.Name = v
	}
	if v, ok := lower["comment"]; ok {
		e.Comment = v
	}
	if v, ok := lower["icon"]; ok {
		e.Icon = v
	}
	if v, ok := lower["exec"]; ok {
		cmdline, err := shellparse.Split(v)
		if err != nil {
			return styreneerrors.Spec(fmt.Sprintf("launcher %s: Exec", e.ID), err)
		}
		e.Exec = v
		e.Cmdline = cmdline
	}
	if v, ok := lower["terminal"]; ok {
		e.Terminal = textutil.Boolify(v)
	}
	if v, ok := lower["mimetype"]; ok {
		e.MimeTypes = ParseMimeTypes(v)
	}
	return nil
}

// Valid reports whether the entry has an ID, a name and a command line.
func (e *Entry) Valid() bool {
	return e.ID != "" && e.Name != "" && e.Exec != "" && len(e.Cmdline) > 0
}

// Program returns the first command-line token.
func (e *Entry) Program() string {
	if len(e.Cmdline) == 0 {
		return ""
	}
	return e.Cmdline[0]
}

var mimeTypeRe = regexp.MustCompile(`^[^/]+/[^/]+$`)

// ParseMimeTypes splits a MimeType value on ";" and keeps the well-formed
// type/subtype tokens.
func ParseMimeTypes(s string) []string {
	var out []string
	for _, t := range strings.Split(strings.TrimSpace(s), ";") {
		t = strings.TrimSpace(t)
		if mimeTypeRe.MatchString(t) {
			out = append(out, t)
		}
	}
	return out
}
