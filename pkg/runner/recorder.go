package runner

import (
	"context"
	"sync"
)

// Recorder is a Runner that records commands instead of running them.
// Handler, when set, decides each result; otherwise every command succeeds
// with no output.
type Recorder struct {
	Handler func(cmd Command) (Result, error)

	mu    sync.Mutex
	calls []Command
}

// Run implements Runner.
func (r *Recorder) Run(ctx context.Context, cmd Command) (Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}
	if r.Handler == nil {
		return Result{}, nil
	}
	return r.Handler(cmd)
}

// Calls returns the recorded commands in order.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.calls...)
}

// Named returns the recorded commands for one program.
func (r *Recorder) Named(name string) []Command {
	var out []Command
	for _, c := range r.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
