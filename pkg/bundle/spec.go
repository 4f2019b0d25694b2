package bundle

import (
	"strings"

	"gopkg.in/ini.v1"

	"github.com/provide-io/styrene/pkg/desktop"
	styreneerrors "github.com/provide-io/styrene/pkg/errors"
)

// MainSection is the bundle spec section describing the bundle itself.
const MainSection = "bundle"

// Spec is a parsed bundle spec file. Key names are matched without
// regard to case; section names are matched exactly.
type Spec struct {
	Path string
	file *ini.File
}

// LoadSpec reads a bundle spec. Values are taken raw, and indented lines
// continue the previous value.
func LoadSpec(path string) (*Spec, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:         "=:",
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		PreserveSurroundedQuote:    true,
		AllowPythonMultilineValues: true,
		SpaceBeforeInlineComment:   true,
	}, path)
	if err != nil {
		return nil, styreneerrors.Spec("loading "+path, err)
	}
	s := &Spec{Path: path, file: f}
	if !s.HasSection(MainSection) {
		return nil, styreneerrors.Specf("%s: missing [%s] section", path, MainSection)
	}
	return s, nil
}

// HasSection reports whether the spec defines a section called name.
func (s *Spec) HasSection(name string) bool {
	_, err := s.file.GetSection(name)
	return err == nil
}

// Section returns a section's values keyed by lower-cased name.
func (s *Spec) Section(name string) (map[string]string, bool) {
	sec, err := s.file.GetSection(name)
	if err != nil {
		return nil, false
	}
	return desktop.SectionMap(sec), true
}

// Get returns a trimmed [bundle] value and whether it was set.
func (s *Spec) Get(key string) (string, bool) {
	sec, err := s.file.GetSection(MainSection)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return strings.TrimSpace(sec.Key(key).Value()), true
}

// List splits a [bundle] value on whitespace.
func (s *Spec) List(key string) []string {
	v, _ := s.Get(key)
	return strings.Fields(v)
}
