package exec

import (
	"context"
	"errors"
	"os"
	"os/exec"

	log "github.com/charmbracelet/log"

	"github.com/timid-ci/timid-github/pkg/step"
)

// ShellAction runs a user-authored test command through the shell, with
// output inherited by the run. A non-zero exit is a step failure, not a
// run-aborting error.
type ShellAction struct {
	Command string
}

// ValidateConfig implements step.Action.
func (a *ShellAction) ValidateConfig(config map[string]any) error {
	return nil
}

// Execute runs the command in the run's working directory.
func (a *ShellAction) Execute(ctx context.Context, runCtx *step.Context) (step.Result, error) {
	log.Debug("running step command", "command", a.Command, "dir", runCtx.Env.Cwd())

	cmd := exec.CommandContext(ctx, "sh", "-c", a.Command)
	cmd.Dir = runCtx.Env.Cwd()
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return step.Result{State: step.StateFailure}, nil
		}
		return step.Result{}, err
	}

	return step.Success(), nil
}
