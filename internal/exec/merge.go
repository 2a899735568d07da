package exec

import (
	"context"
	"fmt"

	"github.com/timid-ci/timid-github/pkg/schema"
	"github.com/timid-ci/timid-github/pkg/step"
)

// MergeAction merges the pull request into the base branch through a local
// topic branch. Injected by the GitHub extension as the second step, right
// after CloneAction.
type MergeAction struct {
	runner *Runner
	spec   schema.SyncSpec
}

// NewMergeAction returns a MergeAction using runner for git invocations.
func NewMergeAction(runner *Runner, spec schema.SyncSpec) *MergeAction {
	return &MergeAction{runner: runner, spec: spec}
}

// ValidateConfig implements step.Action. Synthetic actions take no
// configuration.
func (a *MergeAction) ValidateConfig(config map[string]any) error {
	return nil
}

// Execute creates the topic branch from the base branch, pulls the change
// branch into it, and merges the result back into the base branch. Git
// failures abort the run; none of these calls request SSH retries.
func (a *MergeAction) Execute(ctx context.Context, runCtx *step.Context) (step.Result, error) {
	localBranch := fmt.Sprintf("%s-%s", a.spec.HeadLogin, a.spec.ChangeBranch)

	// The branch may not exist yet; ignore the failure.
	if _, err := a.runner.Git(ctx, Options{NoRaise: true}, "branch", "-D", localBranch); err != nil {
		return step.Result{}, err
	}

	if _, err := a.runner.Git(ctx, Options{}, "checkout", "-b", localBranch, a.spec.RepoBranch); err != nil {
		return step.Result{}, err
	}
	if _, err := a.runner.Git(ctx, Options{}, "pull", a.spec.ChangeURL, a.spec.ChangeBranch); err != nil {
		return step.Result{}, err
	}
	if _, err := a.runner.Git(ctx, Options{}, "checkout", a.spec.RepoBranch); err != nil {
		return step.Result{}, err
	}
	if _, err := a.runner.Git(ctx, Options{}, "merge", localBranch); err != nil {
		return step.Result{}, err
	}

	return step.Success(), nil
}
