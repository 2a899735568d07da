package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v59/github"

	errUtils "github.com/timid-ci/timid-github/errors"
)

// urlAttr maps the reserved URL tokens to their accessor on a repository.
var urlAttr = map[string]func(*github.Repository) string{
	"ssh":   (*github.Repository).GetSSHURL,
	"git":   (*github.Repository).GetGitURL,
	"https": (*github.Repository).GetCloneURL,
}

// SelectURL selects a repository access URL. The tokens "ssh", "git" and
// "https" select the corresponding URL off repo; any other token is itself a
// literal URL and is returned unchanged.
func SelectURL(token string, repo *github.Repository) string {
	if attr, ok := urlAttr[token]; ok {
		return attr(repo)
	}
	return token
}

// Selector identifies a pull request as "[owner/]repo#number".
type Selector struct {
	Owner  string
	Repo   string
	Number int
}

// FullRepo returns the owner-qualified repository name.
func (s Selector) FullRepo() string {
	return s.Owner + "/" + s.Repo
}

// ParseSelector parses a pull-request selector, filling in defaultOwner when
// the repository is not owner-qualified.
func ParseSelector(spec, defaultOwner string) (Selector, error) {
	repo, number, found := strings.Cut(spec, "#")
	if !found || number == "" {
		return Selector{}, fmt.Errorf("%w: %q", errUtils.ErrInvalidPullSelector, spec)
	}

	n, err := strconv.Atoi(number)
	if err != nil || n < 0 {
		return Selector{}, fmt.Errorf("%w: %q", errUtils.ErrInvalidPullSelector, spec)
	}

	owner := defaultOwner
	if o, r, ok := strings.Cut(repo, "/"); ok {
		owner, repo = o, r
	}

	return Selector{Owner: owner, Repo: repo, Number: n}, nil
}

// PullRequest is an immutable reference to the pull request under test,
// valid for the duration of one run.
type PullRequest struct {
	pull *github.PullRequest

	// LastCommitSHA is the SHA of the chronologically last commit on the
	// head branch; status updates attach to it.
	LastCommitSHA string
}

// LookupPull fetches a pull request by selector.
func LookupPull(ctx context.Context, client *github.Client, sel Selector) (*PullRequest, error) {
	pull, _, err := client.PullRequests.Get(ctx, sel.Owner, sel.Repo, sel.Number)
	if err != nil {
		return nil, fmt.Errorf("%w: %s#%d: %w", errUtils.ErrPullRequestNotFound, sel.FullRepo(), sel.Number, err)
	}

	sha, err := lastCommitSHA(ctx, client, pull)
	if err != nil {
		return nil, err
	}

	return &PullRequest{pull: pull, LastCommitSHA: sha}, nil
}

// HydratePull builds a pull-request reference from an inline raw JSON
// payload, bypassing the live lookup. Deprecated legacy path.
func HydratePull(raw json.RawMessage) (*PullRequest, error) {
	var pull github.PullRequest
	if err := json.Unmarshal(raw, &pull); err != nil {
		return nil, fmt.Errorf("%w: %w", errUtils.ErrInvalidPullSelector, err)
	}
	return &PullRequest{pull: &pull, LastCommitSHA: pull.GetHead().GetSHA()}, nil
}

// lastCommitSHA walks the commit list to its final page and returns the SHA
// of the last commit.
func lastCommitSHA(ctx context.Context, client *github.Client, pull *github.PullRequest) (string, error) {
	owner := pull.GetBase().GetRepo().GetOwner().GetLogin()
	repo := pull.GetBase().GetRepo().GetName()

	opts := &github.ListOptions{PerPage: 100}
	var last *github.RepositoryCommit
	for {
		commits, resp, err := client.PullRequests.ListCommits(ctx, owner, repo, pull.GetNumber(), opts)
		if err != nil {
			return "", err
		}
		if len(commits) > 0 {
			last = commits[len(commits)-1]
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if last == nil {
		return "", fmt.Errorf("%w: %s", errUtils.ErrNoCommitsInPull, pull.GetHTMLURL())
	}
	return last.GetSHA(), nil
}

// BaseRepoName returns the bare name of the base repository.
func (p *PullRequest) BaseRepoName() string {
	return p.pull.GetBase().GetRepo().GetName()
}

// BaseOwner returns the owner login of the base repository.
func (p *PullRequest) BaseOwner() string {
	return p.pull.GetBase().GetRepo().GetOwner().GetLogin()
}

// BaseBranch returns the branch the pull request targets.
func (p *PullRequest) BaseBranch() string {
	return p.pull.GetBase().GetRef()
}

// BaseRepo returns the base repository object for URL selection.
func (p *PullRequest) BaseRepo() *github.Repository {
	return p.pull.GetBase().GetRepo()
}

// HeadBranch returns the branch the change comes from.
func (p *PullRequest) HeadBranch() string {
	return p.pull.GetHead().GetRef()
}

// HeadRepo returns the head repository object for URL selection.
func (p *PullRequest) HeadRepo() *github.Repository {
	return p.pull.GetHead().GetRepo()
}

// HeadLogin returns the login of the pull-request author.
func (p *PullRequest) HeadLogin() string {
	return p.pull.GetUser().GetLogin()
}

// Number returns the pull-request number.
func (p *PullRequest) Number() int {
	return p.pull.GetNumber()
}

// DisplayID returns the "org/repo#number" display identifier.
func (p *PullRequest) DisplayID() string {
	return fmt.Sprintf("%s#%d", p.pull.GetBase().GetRepo().GetFullName(), p.pull.GetNumber())
}
