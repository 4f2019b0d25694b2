package textutil

import (
	"regexp"
	"strings"
)

// Boolify converts loosely written booleans. "false", "0", "no", "n" and
// the empty string (any case, surrounding space ignored) are false.
func Boolify(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "no", "n", "":
		return false
	}
	return true
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Substitute expands {name} placeholders from vars. Unknown placeholders
// are left as they are.
func Substitute(s string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// Uniq returns items with later duplicates removed.
func Uniq(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

