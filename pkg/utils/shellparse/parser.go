// Package shellparse splits and joins launcher command lines.
//
// The grammar is the one desktop entries use for Exec values, not a POSIX
// shell: backslash is only special inside double quotes, there are no single
// quotes, and adjacent quoted and unquoted runs join into one argument.
package shellparse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrUnclosedQuote is returned when a quoted string is not properly closed
	ErrUnclosedQuote = errors.New("unclosed quote in command string")
)

// Split parses a command string into arguments.
//
// Parsing rules:
//   - Words are separated by runs of whitespace
//   - Double quotes group characters, including whitespace
//   - Inside double quotes a backslash takes the next character literally
//   - Outside quotes a backslash is an ordinary character
//   - Empty input returns empty slice
//
// Examples:
//
//	Split(`foo "bar baz" qux`) => ["foo", "bar baz", "qux"]
//	Split(`a\ b`) => [`a\`, "b"]
//	Split(`x"y z"w`) => ["xy zw"]
func Split(input string) ([]string, error) {
	runes := []rune(strings.TrimSpace(input))
	result := []string{}
	if len(runes) == 0 {
		return result, nil
	}

	var current strings.Builder
	inQuote := false
	inWord := false

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if inQuote {
			switch {
			case ch == '\\' && i+1 < len(runes):
				i++
				current.WriteRune(runes[i])
			case ch == '\\':
				return nil, fmt.Errorf("%w: %s", ErrUnclosedQuote, input)
			case ch == '"':
				inQuote = false
			default:
				current.WriteRune(ch)
			}
			continue
		}

		switch {
		case ch == '"':
			inQuote = true
			inWord = true
		case unicode.IsSpace(ch):
			if inWord {
				result = append(result, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(ch)
			inWord = true
		}
	}

	if inQuote {
		return nil, fmt.Errorf("%w: %s", ErrUnclosedQuote, input)
	}
	if inWord {
		result = append(result, current.String())
	}

	return result, nil
}

// Join combines arguments into a command string that Split turns back into
// the same arguments.
func Join(args []string) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, Quote(arg))
	}
	return strings.Join(parts, " ")
}

// Quote returns arg unchanged when Split would read it back as one word,
// and double-quoted with escapes otherwise.
func Quote(arg string) string {
	if arg != "" && !strings.ContainsFunc(arg, func(ch rune) bool {
		return unicode.IsSpace(ch) || ch == '"'
	}) {
		return arg
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, ch := range arg {
		if ch == '"' || ch == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(ch)
	}
	b.WriteByte('"')
	return b.String()
}
