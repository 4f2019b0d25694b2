package pacman

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/provide-io/styrene/pkg/runner"
)

// VersionComparator orders pacman version strings. Compare returns a
// negative number, zero or a positive number as a sorts before, equal to
// or after b.
type VersionComparator interface {
	Compare(ctx context.Context, a, b string) (int, error)
}

// ComparatorFunc adapts an ordinary function to VersionComparator.
type ComparatorFunc func(a, b string) int

// Compare implements VersionComparator.
func (f ComparatorFunc) Compare(_ context.Context, a, b string) (int, error) {
	return f(a, b), nil
}

// VercmpComparator asks pacman's vercmp tool.
type VercmpComparator struct {
	Runner runner.Runner
}

// Compare implements VersionComparator.
func (v VercmpComparator) Compare(ctx context.Context, a, b string) (int, error) {
	res, err := runner.Check(ctx, v.Runner, runner.Command{Name: "vercmp", Args: []string{a, b}})
	if err != nil {
		return 0, err
	}
	out := strings.TrimSpace(string(res.Stdout))
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected vercmp output %q: %w", out, err)
	}
	switch {
	case n < 0:
		return -1, nil
	case n > 0:
		return 1, nil
	}
	return 0, nil
}
