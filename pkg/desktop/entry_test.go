package desktop

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	styreneerrors "github.com/provide-io/styrene/pkg/errors"
)

func testLogger(buf *bytes.Buffer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "desktop_test",
		Level:  hclog.Trace,
		Output: buf,
	})
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const gimpDesktop = `[Desktop Entry]
Type=Application
Name=GNU Image Manipulation Program
Name[de]=GNU-Bildbearbeitungsprogramm
Comment=Create images and edit photographs
Exec=gimp-2.8 %U
Icon=gimp
Terminal=false
MimeType=image/png;image/x-xcf; not-a-type ;image/jpeg;
# a comment
Keywords=GIMP;graphic;design;

[Desktop Action new]
Name=New window
Exec=gimp-2.8 --new-instance
`

func TestParseFile(t *testing.T) {
	var buf bytes.Buffer
	path := writeFile(t, filepath.Join(t.TempDir(), "gimp.desktop"), gimpDesktop)

	entry, err := ParseFile(path, testLogger(&buf))
	require.NoError(t, err)

	assert.Equal(t, "gimp", entry.ID)
	assert.Equal(t, "GNU Image Manipulation Program", entry.Name)
	assert.Equal(t, "Create images and edit photographs", entry.Comment)
	assert.Equal(t, "gimp", entry.Icon)
	assert.Equal(t, "gimp-2.8 %U", entry.Exec)
	assert.Equal(t, []string{"gimp-2.8", "%U"}, entry.Cmdline)
	assert.False(t, entry.Terminal)
	assert.Equal(t, []string{"image/png", "image/x-xcf", "image/jpeg"}, entry.MimeTypes)
	assert.True(t, entry.Valid())
	assert.NotContains(t, buf.String(), "not an application")
}

func TestParseFileRawValues(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "quoted.desktop"), `[Desktop Entry]
Type=Application
Name=Quoted ; not a comment
Exec="C:/Program Files/app.exe" --title "100%% done" \
Terminal=TRUE
`)

	entry, err := ParseFile(path, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, "Quoted ; not a comment", entry.Name)
	assert.Equal(t, []string{"C:/Program Files/app.exe", "--title", "100%% done", `\`}, entry.Cmdline)
	assert.True(t, entry.Terminal)
}

func TestParseFileWrongTypeWarnsAndProceeds(t *testing.T) {
	var buf bytes.Buffer
	path := writeFile(t, filepath.Join(t.TempDir(), "link.desktop"), `[Desktop Entry]
Type=Link
Name=Homepage
Exec=xdg-open http://example.com
`)

	entry, err := ParseFile(path, testLogger(&buf))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "not an application")
	assert.Equal(t, "Homepage", entry.Name)
	assert.True(t, entry.Valid())
}

func TestParseFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ParseFile(filepath.Join(dir, "missing.desktop"), hclog.NewNullLogger())
	assert.ErrorIs(t, err, styreneerrors.ErrSpecification)

	path := writeFile(t, filepath.Join(dir, "nogroup.desktop"), "[Other]\nName=x\n")
	_, err = ParseFile(path, hclog.NewNullLogger())
	assert.ErrorIs(t, err, styreneerrors.ErrSpecification)

	path = writeFile(t, filepath.Join(dir, "badexec.desktop"), "[Desktop Entry]\nExec=foo \"bar\n")
	_, err = ParseFile(path, hclog.NewNullLogger())
	assert.ErrorIs(t, err, styreneerrors.ErrSpecification)
}

func TestUpdateOverridesFieldByField(t *testing.T) {
	entry := &Entry{
		ID:        "gimp",
		Name:      "GIMP",
		Comment:   "original",
		Cmdline:   []string{"gimp"},
		Exec:      "gimp",
		MimeTypes: []string{"image/png"},
	}

	err := entry.Update(map[string]string{
		"NAME":     " GIMP 2.8 ",
		"Terminal": "yes",
		"exec":     `myapp.exe --flag "a b"`,
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "gimp", entry.ID)
	assert.Equal(t, "GIMP 2.8", entry.Name)
	assert.Equal(t, "original", entry.Comment)
	assert.True(t, entry.Terminal)
	assert.Equal(t, []string{"myapp.exe", "--flag", "a b"}, entry.Cmdline)
	assert.Equal(t, "myapp.exe", entry.Program())
	assert.Equal(t, []string{"image/png"}, entry.MimeTypes)
}

func TestUpdateID(t *testing.T) {
	entry := &Entry{}
	require.NoError(t, entry.Update(nil, "my:app.desktop"))
	assert.Equal(t, "my_app", entry.ID)

	require.NoError(t, entry.Update(nil, "con"))
	assert.Equal(t, "_con", entry.ID)

	err := entry.Update(nil, "  .desktop")
	assert.ErrorIs(t, err, styreneerrors.ErrSpecification)
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  bool
	}{
		{name: "complete", entry: Entry{ID: "a", Name: "A", Exec: "a", Cmdline: []string{"a"}}, want: true},
		{name: "no id", entry: Entry{Name: "A", Exec: "a", Cmdline: []string{"a"}}},
		{name: "no name", entry: Entry{ID: "a", Exec: "a", Cmdline: []string{"a"}}},
		{name: "empty command", entry: Entry{ID: "a", Name: "A", Exec: `   `}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Valid())
		})
	}
}

func TestParseMimeTypes(t *testing.T) {
	assert.Equal(t, []string{"text/plain", "image/svg+xml"},
		ParseMimeTypes(" text/plain ; ;image/svg+xml;bogus;a/b/c;"))
	assert.Empty(t, ParseMimeTypes(""))
}
