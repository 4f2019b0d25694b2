// SPDX-License-Identifier: Apache-2.0
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/styrene/pkg/logging"
)

// ExecRunner runs commands as child processes. Output is captured and, at
// debug level, echoed to the log line by line.
type ExecRunner struct {
	Logger hclog.Logger
	// Paths maps a tool name to the executable to run for it.
	Paths map[string]string
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(logger hclog.Logger, paths map[string]string) *ExecRunner {
	return &ExecRunner{Logger: logger, Paths: paths}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	name := c.Name
	if p, ok := r.Paths[name]; ok && p != "" {
		name = p
	}

	cmd := exec.CommandContext(ctx, name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var echo *logging.PrefixWriter
	if r.Logger.IsDebug() {
		echo = logging.NewPrefixWriter("  | ", r.Logger.StandardWriter(&hclog.StandardLoggerOptions{
			ForceLevel: hclog.Debug,
		}))
		cmd.Stdout = io.MultiWriter(&stdout, echo)
		cmd.Stderr = io.MultiWriter(&stderr, echo)
	}

	r.Logger.Info("🚀 running", "command", c.String(), "dir", c.Dir)

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to start process: %w", err)
	}

	err := cmd.Wait()
	if echo != nil {
		echo.Flush()
	}
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			r.Logger.Debug("⏹️ process exited", "command", c.Name, "code", res.ExitCode)
			return res, nil
		}
		return res, fmt.Errorf("process error: %w", err)
	}

	r.Logger.Debug("✅ process completed", "command", c.Name)
	return res, nil
}
