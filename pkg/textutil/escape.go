// Package textutil holds the escaping and normalization helpers used when
// writing installer scripts, shell scripts, C headers and file names.
package textutil

import (
	"regexp"
	"strings"
)

var (
	nsisReplacer = strings.NewReplacer(
		"$", "$$",
		`"`, `$\"`,
		"`", "$\\`",
		"'", `$\'`,
	)
	cReplacer  = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	shReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
)

// NSISEscape escapes s for use inside a double-quoted NSIS string.
func NSISEscape(s string) string {
	return nsisReplacer.Replace(s)
}

// CEscape escapes s for use inside a wide C string literal (L"...").
func CEscape(s string) string {
	return cReplacer.Replace(s)
}

// ShEscape escapes s for use inside a double-quoted shell string.
func ShEscape(s string) string {
	return shReplacer.Replace(s)
}

var (
	nonWord          = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	winUnsafe        = regexp.MustCompile(`[\x00-\x1f<>:"/\\|?*]`)
	winReservedNames = regexp.MustCompile(`(?i)^(CON|PRN|AUX|COM\d|LPT\d)$`)
)

// Str2Key normalizes s into a map key: trimmed, lower-cased, with runs of
// non-word characters collapsed to "_".
func Str2Key(s string) string {
	return nonWord.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
}

// WinsafeFilename makes s usable as a Windows file or folder name.
// Spaces are kept.
func WinsafeFilename(s string) string {
	s = winUnsafe.ReplaceAllString(strings.TrimSpace(s), "_")
	if winReservedNames.MatchString(s) {
		s = "_" + s
	}
	return s
}
