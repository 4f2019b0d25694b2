package pacman

import (
	"context"
	"regexp"
	"strings"

	"github.com/provide-io/styrene/pkg/runner"
	"github.com/provide-io/styrene/pkg/textutil"
)

// Metadata is the parsed output of "pacman --sync --info", keyed by
// normalized header ("name", "version", "install_size", ...).
type Metadata map[string]string

// Get returns the value for key, or fallback if it is missing.
func (m Metadata) Get(key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

var headerLineRe = regexp.MustCompile(`(?i)^([a-z][a-z ]*):\s(.*)$`)

// ParseMetadata parses "Header : value" lines. Lines that do not start a
// header continue the previous value on a new line. Blank lines and lines
// before the first header are ignored.
func ParseMetadata(text string) Metadata {
	md := Metadata{}
	current := ""
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := headerLineRe.FindStringSubmatch(line); m != nil {
			current = textutil.Str2Key(m[1])
			md[current] = strings.TrimSpace(m[2])
			continue
		}
		if current == "" {
			continue
		}
		md[current] += "\n" + strings.TrimSpace(line)
	}
	return md
}

// QueryMetadata asks pacman for the repository metadata of one package.
func QueryMetadata(ctx context.Context, r runner.Runner, name string) (Metadata, error) {
	res, err := runner.Check(ctx, r, runner.Command{
		Name: "pacman",
		Args: []string{"--sync", "--info", name},
		Env:  []string{"LANG=C"},
	})
	if err != nil {
		return nil, err
	}
	return ParseMetadata(string(res.Stdout)), nil
}
