// Package extension implements the GitHub integration extension for the
// timid test runner: it injects the repository sync steps into a run and
// mirrors the run's progress onto the pull request as commit statuses.
package extension

import (
	"context"
	"fmt"

	log "github.com/charmbracelet/log"

	"github.com/timid-ci/timid-github/internal/exec"
	"github.com/timid-ci/timid-github/pkg/github"
	"github.com/timid-ci/timid-github/pkg/schema"
	"github.com/timid-ci/timid-github/pkg/step"
)

// Priority orders this extension relative to others in the host runner.
const Priority = 50

// syntheticFile is the address file of the injected steps; it cannot
// collide with user-authored step addresses, which always point at real
// test description files.
const syntheticFile = "timid_github.go"

// Reporter is the status-transmission capability the extension drives.
type Reporter interface {
	// Report transmits a status to the pull request and records it as the
	// last reported status on success.
	Report(ctx context.Context, status github.Status) error

	// Last returns the most recently transmitted status, nil if none.
	Last() *github.Status
}

// Extension mirrors a test run onto a GitHub pull request. One instance per
// run, created by Activator.Activate; nil when the run has no pull request
// to integrate with.
type Extension struct {
	reporter    Reporter
	pull        *github.PullRequest
	statusURL   string
	finalStatus github.Status
	spec        schema.SyncSpec
	runner      *exec.Runner
}

// ReadSteps prepends the clone and merge steps to the run's step list.
func (e *Extension) ReadSteps(runCtx *step.Context, steps []step.Step) []step.Step {
	injected := []step.Step{
		{
			Name:        "Cloning repository",
			Description: "Clone the Github repository",
			Address:     step.Address{File: syntheticFile, Index: 0},
			Action:      exec.NewCloneAction(e.runner, e.spec),
		},
		{
			Name:        "Merging pull request",
			Description: "Merge the Github pull request",
			Address:     step.Address{File: syntheticFile, Index: 1},
			Action:      exec.NewMergeAction(e.runner, e.spec),
		},
	}
	return append(injected, steps...)
}

// PreStep announces the step on the pull request as pending. It never
// requests a skip.
func (e *Extension) PreStep(ctx context.Context, s step.Step, idx int) bool {
	e.report(ctx, github.Status{
		State: github.StatusPending,
		Text:  s.Name,
		URL:   e.statusURL,
	})
	return false
}

// PostStep reports failed steps on the pull request. Successful and skipped
// steps are not reported: the next step's PreStep or the final
// reconciliation covers them.
func (e *Extension) PostStep(ctx context.Context, s step.Step, idx int, res step.Result) {
	if res.OK() {
		return
	}

	var state, msg string
	switch res.State {
	case step.StateFailure:
		state = github.StatusFailure
		msg = res.Message
		if msg == "" {
			msg = fmt.Sprintf("Failed: %s", s.Name)
		}
	case step.StateError:
		state = github.StatusError
		msg = res.Message
		if msg == "" {
			msg = fmt.Sprintf("Error: %s", s.Name)
		}
	default:
		state = github.StatusError
		msg = res.Message
		if msg == "" {
			msg = fmt.Sprintf("Unknown state %q during step: %s", string(res.State), s.Name)
		}
	}

	e.report(ctx, github.Status{State: state, Text: msg, URL: e.statusURL})
}

// Finalize reconciles the run outcome into one terminal status and returns
// result unchanged: the extension never alters the run's own exit value.
//
// A nil result reports the preconfigured final status. An error reports an
// error status. Any other non-nil result reports a failure only when the
// last transmitted status is still pending, which means a step announced
// itself but never reached a terminal outcome.
func (e *Extension) Finalize(ctx context.Context, result any) any {
	switch v := result.(type) {
	case nil:
		e.report(ctx, e.finalStatus)
	case error:
		e.report(ctx, github.Status{
			State: github.StatusError,
			Text:  fmt.Sprintf("Exception while running timid: %s", v),
			URL:   e.statusURL,
		})
	default:
		if last := e.reporter.Last(); last != nil && last.State == github.StatusPending {
			e.report(ctx, github.Status{
				State: github.StatusFailure,
				Text:  fmt.Sprintf("Testing failed: %s", v),
				URL:   e.statusURL,
			})
		}
	}
	return result
}

// report transmits a status. Status reporting is best-effort and never
// gates the run: transmission failures are logged and swallowed.
func (e *Extension) report(ctx context.Context, status github.Status) {
	if err := e.reporter.Report(ctx, status); err != nil {
		log.Warn("failed to update pull request status", "state", status.State, "error", err)
	}
}
