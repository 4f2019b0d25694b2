package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNSISEscape(t *testing.T) {
	assert.Equal(t, `$$INSTDIR`, NSISEscape(`$INSTDIR`))
	assert.Equal(t, `say $\"hi$\"`, NSISEscape(`say "hi"`))
	assert.Equal(t, "it$\\'s $\\`x$\\`", NSISEscape("it's `x`"))
	assert.Equal(t, `C:\path`, NSISEscape(`C:\path`))
}

func TestCAndShellEscapes(t *testing.T) {
	assert.Equal(t, `C:\\dir\\\"x\"`, CEscape(`C:\dir\"x"`))
	assert.Equal(t, `echo \"a\\b\"`, ShEscape(`echo "a\b"`))
	assert.Equal(t, "Cost \\$HOME \\`id\\`", ShEscape("Cost $HOME `id`"))
}

func TestStr2Key(t *testing.T) {
	tests := map[string]string{
		"Install Size":   "install_size",
		"  Depends On ":  "depends_on",
		"Build Date":     "build_date",
		"Name":           "name",
		"a--b..c":        "a_b_c",
		"Größe Öffnen":   "größe_öffnen",
	}
	for in, want := range tests {
		assert.Equal(t, want, Str2Key(in), in)
	}
}

func TestWinsafeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "GIMP 2", want: "GIMP 2"},
		{in: `a<b>c:d"e/f\g|h?i*j`, want: "a_b_c_d_e_f_g_h_i_j"},
		{in: "tab\there", want: "tab_here"},
		{in: "con", want: "_con"},
		{in: "COM1", want: "_COM1"},
		{in: "console", want: "console"},
		{in: "  padded  ", want: "padded"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WinsafeFilename(tt.in), tt.in)
	}
}

func TestBoolify(t *testing.T) {
	for _, s := range []string{"false", "FALSE", "0", "no", "No", "n", "", "  "} {
		assert.False(t, Boolify(s), "%q", s)
	}
	for _, s := range []string{"true", "1", "yes", "y", "whatever"} {
		assert.True(t, Boolify(s), "%q", s)
	}
}

func TestSubstitute(t *testing.T) {
	vars := map[string]string{"pkg_prefix": "mingw-w64-x86_64-", "bits": "64"}
	assert.Equal(t, "mingw-w64-x86_64-gimp w64 {unknown}",
		Substitute("{pkg_prefix}gimp w{bits} {unknown}", vars))
	assert.Equal(t, "no placeholders", Substitute("no placeholders", vars))
}

func TestUniq(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Uniq([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Uniq(nil))
}
