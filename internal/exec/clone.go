package exec

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/charmbracelet/log"

	"github.com/timid-ci/timid-github/pkg/schema"
	"github.com/timid-ci/timid-github/pkg/step"
)

// cloneRetries is the retry budget for the network-facing clone and fetch
// calls, the first and most failure-prone operations of a run.
const cloneRetries = 5

// CloneAction clones or updates the base repository in the working
// directory and leaves the run environment inside it. It never appears in a
// test description; the GitHub extension injects it as the first step.
type CloneAction struct {
	runner *Runner
	spec   schema.SyncSpec
}

// NewCloneAction returns a CloneAction using runner for git invocations.
func NewCloneAction(runner *Runner, spec schema.SyncSpec) *CloneAction {
	return &CloneAction{runner: runner, spec: spec}
}

// ValidateConfig implements step.Action. Synthetic actions take no
// configuration.
func (a *CloneAction) ValidateConfig(config map[string]any) error {
	return nil
}

// Execute reconciles the target directory with the base repository: update
// in place when it already holds a repository, clone from scratch otherwise.
// A failed in-place update falls back to removing the directory and
// re-cloning.
func (a *CloneAction) Execute(ctx context.Context, runCtx *step.Context) (step.Result, error) {
	workDir := runCtx.Env.Cwd()
	repoDir := filepath.Join(workDir, a.spec.RepoName)

	info, err := os.Lstat(repoDir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return step.Result{}, err
		}
		// Nothing in the way, clone from scratch.
		return a.clone(ctx, runCtx, workDir, repoDir)
	}

	if !info.IsDir() {
		// We control the work dir, so delete the extraneous file.
		if err := os.Remove(repoDir); err != nil {
			return step.Result{}, err
		}
		return a.clone(ctx, runCtx, workDir, repoDir)
	}

	if dirInfo, err := os.Stat(filepath.Join(repoDir, ".git")); err == nil && dirInfo.IsDir() {
		runCtx.Env.Chdir(repoDir)
		res, err := a.update(ctx)
		if err == nil {
			return res, nil
		}
		// Update in place failed; back out of the directory and fall
		// through to a full re-clone.
		log.Debug("in-place update failed, re-cloning", "dir", repoDir, "error", err)
		runCtx.Env.Chdir(workDir)
	}

	if err := os.RemoveAll(repoDir); err != nil {
		return step.Result{}, err
	}
	return a.clone(ctx, runCtx, workDir, repoDir)
}

// clone clones the base repository into targetDir and updates it. On update
// failure the previous working directory is restored before the error
// propagates.
func (a *CloneAction) clone(ctx context.Context, runCtx *step.Context, workDir, targetDir string) (step.Result, error) {
	if _, err := a.runner.Git(ctx, Options{Retries: cloneRetries}, "clone", a.spec.RepoURL, targetDir); err != nil {
		return step.Result{}, err
	}

	runCtx.Env.Chdir(targetDir)
	res, err := a.update(ctx)
	if err != nil {
		runCtx.Env.Chdir(workDir)
		return step.Result{}, err
	}
	return res, nil
}

// update brings the repository at the current working directory up to date
// with the base branch of the base repository.
func (a *CloneAction) update(ctx context.Context) (step.Result, error) {
	if _, err := a.runner.Git(ctx, Options{}, "remote", "set-url", "origin", a.spec.RepoURL); err != nil {
		return step.Result{}, err
	}

	// There may be no rebase in progress; ignore the failure.
	if _, err := a.runner.Git(ctx, Options{NoRaise: true}, "rebase", "--abort"); err != nil {
		return step.Result{}, err
	}

	if _, err := a.runner.Git(ctx, Options{}, "checkout", "-f", a.spec.RepoBranch); err != nil {
		return step.Result{}, err
	}
	if _, err := a.runner.Git(ctx, Options{}, "reset", "--hard", "origin/"+a.spec.RepoBranch); err != nil {
		return step.Result{}, err
	}
	if _, err := a.runner.Git(ctx, Options{}, "clean", "-fdx"); err != nil {
		return step.Result{}, err
	}

	if _, err := a.runner.Git(ctx, Options{Retries: cloneRetries}, "fetch", "origin", a.spec.RepoBranch); err != nil {
		return step.Result{}, err
	}
	if _, err := a.runner.Git(ctx, Options{}, "checkout", a.spec.RepoBranch); err != nil {
		return step.Result{}, err
	}

	return step.Success(), nil
}
