package media

import (
	"context"
	"os/exec"
)

// Runner executes an external command and returns its combined output.
// The prober is written against this interface so tests can feed canned
// ffprobe documents without a binary on the path.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type commandRunner struct{}

// NewCommandRunner returns a Runner backed by os/exec.
func NewCommandRunner() Runner {
	return commandRunner{}
}

func (commandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
