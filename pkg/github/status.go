package github

import (
	"context"
	"fmt"

	log "github.com/charmbracelet/log"

	"github.com/google/go-github/v59/github"

	errUtils "github.com/timid-ci/timid-github/errors"
)

// Commit status states accepted by the GitHub status API.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// Status is one reported commit status. Empty Text and URL are omitted from
// the API call, which distinguishes "not provided" from empty string.
type Status struct {
	State string
	Text  string
	URL   string
}

// statusPoster is the slice of the GitHub API the reporter needs.
type statusPoster interface {
	CreateStatus(ctx context.Context, owner, repo, ref string, status *github.RepoStatus) (*github.RepoStatus, *github.Response, error)
}

// StatusReporter posts commit statuses to the last commit of the pull
// request and tracks the most recently transmitted status. One instance per
// run; runs are single-threaded, so the last-status field needs no locking.
type StatusReporter struct {
	repos statusPoster
	owner string
	repo  string
	sha   string

	last *Status
}

// NewStatusReporter returns a reporter posting to the last commit of pull.
func NewStatusReporter(client *github.Client, pull *PullRequest) *StatusReporter {
	return &StatusReporter{
		repos: client.Repositories,
		owner: pull.BaseOwner(),
		repo:  pull.BaseRepoName(),
		sha:   pull.LastCommitSHA,
	}
}

// Report transmits a status to the pull request. The last-status record is
// updated only after a successful transmission, never speculatively.
func (r *StatusReporter) Report(ctx context.Context, status Status) error {
	repoStatus := &github.RepoStatus{State: github.String(status.State)}
	if status.Text != "" {
		repoStatus.Description = github.String(status.Text)
	}
	if status.URL != "" {
		repoStatus.TargetURL = github.String(status.URL)
	}

	log.Debug("reporting pull request status", "state", status.State, "text", status.Text, "sha", r.sha)

	if _, _, err := r.repos.CreateStatus(ctx, r.owner, r.repo, r.sha, repoStatus); err != nil {
		return fmt.Errorf("%w: %w", errUtils.ErrStatusPostFailed, err)
	}

	s := status
	r.last = &s
	return nil
}

// Last returns the most recently transmitted status, or nil if none has
// been transmitted yet.
func (r *StatusReporter) Last() *Status {
	return r.last
}
