// Package runner runs the external programs the build depends on: pacman,
// vercmp, gcc, makensis and zip.
package runner

import (
	"context"
	"fmt"
	"strings"

	styreneerrors "github.com/provide-io/styrene/pkg/errors"
)

// Command is one program invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are added to the inherited environment.
	Env []string
}

// Argv returns the full command line.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String returns the command line joined with spaces.
func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Result is the outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner runs a command to completion. A non-zero exit is reported in the
// Result, not as an error; the error is for processes that could not run.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Check runs cmd and turns a start failure or non-zero exit into an
// external-tool error carrying the command line.
func Check(ctx context.Context, r Runner, cmd Command) (Result, error) {
	res, err := r.Run(ctx, cmd)
	if err != nil {
		return res, styreneerrors.Tool(cmd.Argv(), err)
	}
	if res.ExitCode != 0 {
		cause := fmt.Errorf("exit code %d", res.ExitCode)
		if msg := strings.TrimSpace(string(res.Stderr)); msg != "" {
			cause = fmt.Errorf("exit code %d: %s", res.ExitCode, lastLine(msg))
		}
		return res, styreneerrors.Tool(cmd.Argv(), cause)
	}
	return res, nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
