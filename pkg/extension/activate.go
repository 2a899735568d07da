package extension

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/charmbracelet/log"
	gogithub "github.com/google/go-github/v59/github"

	errUtils "github.com/timid-ci/timid-github/errors"
	"github.com/timid-ci/timid-github/internal/exec"
	"github.com/timid-ci/timid-github/pkg/credentials"
	"github.com/timid-ci/timid-github/pkg/github"
	"github.com/timid-ci/timid-github/pkg/schema"
	"github.com/timid-ci/timid-github/pkg/step"
)

// Activator builds an Extension from parsed options. Its fields are the
// external capabilities activation depends on; NewActivator wires the
// production implementations, tests substitute fakes.
type Activator struct {
	Store  credentials.Store
	Prompt func(label string) (string, error)

	NewClient func(apiURL, username, password string) (*gogithub.Client, error)
	Lookup    func(ctx context.Context, client *gogithub.Client, sel github.Selector) (*github.PullRequest, error)

	NewReporter func(client *gogithub.Client, pull *github.PullRequest) Reporter
}

// NewActivator returns an Activator with production capabilities.
func NewActivator() *Activator {
	return &Activator{
		Store:     credentials.NewStore(),
		Prompt:    credentials.Prompt,
		NewClient: github.NewClient,
		Lookup:    github.LookupPull,
		NewReporter: func(client *gogithub.Client, pull *github.PullRequest) Reporter {
			return github.NewStatusReporter(client, pull)
		},
	}
}

// Activate decides whether the extension participates in this run and, if
// so, builds it. It returns (nil, nil) when no pull request was selected or
// when the selector cannot be resolved to a real pull request: the run then
// proceeds without GitHub integration. Credential or option errors abort
// activation.
func (a *Activator) Activate(ctx context.Context, runCtx *step.Context, opts *schema.GithubOptions) (*Extension, error) {
	if opts.Pull == "" {
		return nil, nil
	}

	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}

	passwd, err := a.resolvePassword(opts)
	if err != nil {
		return nil, err
	}

	client, err := a.NewClient(opts.API, opts.User, passwd)
	if err != nil {
		return nil, err
	}

	pull, err := a.resolvePull(ctx, client, opts)
	if err != nil {
		// Not a resolvable pull request; deactivate rather than abort.
		log.Debug("could not resolve pull request, extension inactive", "selector", opts.Pull, "error", err)
		return nil, nil
	}

	repoURL := github.SelectURL(opts.Repo, pull.BaseRepo())

	// If not independently specified, the change repository defaults to
	// the same access method. The URLs may legally be equal: a pull
	// request can target another branch of its own repository.
	changeToken := opts.ChangeRepo
	if changeToken == "" {
		changeToken = opts.Repo
	}
	changeURL := github.SelectURL(changeToken, pull.HeadRepo())

	finalStatus := FinalStatus(opts)

	runCtx.DeclareSensitive("github_api_password")
	runCtx.SetVariables(map[string]string{
		"github_api":            opts.API,
		"github_api_username":   opts.User,
		"github_api_password":   passwd,
		"github_repo_name":      pull.BaseRepoName(),
		"github_pull":           pull.DisplayID(),
		"github_base_repo":      repoURL,
		"github_base_branch":    pull.BaseBranch(),
		"github_change_repo":    changeURL,
		"github_change_branch":  pull.HeadBranch(),
		"github_success_status": finalStatus.State,
		"github_success_text":   finalStatus.Text,
		"github_success_url":    finalStatus.URL,
		"github_status_url":     opts.StatusURL,
	})

	return &Extension{
		reporter:    a.NewReporter(client, pull),
		pull:        pull,
		statusURL:   opts.StatusURL,
		finalStatus: finalStatus,
		spec: schema.SyncSpec{
			RepoName:     pull.BaseRepoName(),
			RepoURL:      repoURL,
			RepoBranch:   pull.BaseBranch(),
			ChangeURL:    changeURL,
			ChangeBranch: pull.HeadBranch(),
			HeadLogin:    pull.HeadLogin(),
		},
		runner: exec.NewRunner(runCtx.Env),
	}, nil
}

// resolvePassword resolves credentials in order: explicit flag, keyring
// lookup (skipped when the keyring is being set), interactive prompt. With
// --github-keyring-set the resolved password is persisted afterwards.
func (a *Activator) resolvePassword(opts *schema.GithubOptions) (string, error) {
	service := credentials.ServiceKey(opts.API)

	passwd := opts.Pass
	if passwd == "" && !opts.KeyringSet {
		stored, err := a.Store.Get(service, opts.User)
		if err != nil && !errors.Is(err, errUtils.ErrCredentialsNotFound) {
			return "", err
		}
		passwd = stored
	}
	if passwd == "" {
		prompted, err := a.Prompt(fmt.Sprintf("[%s] Password for %q", opts.API, opts.User))
		if err != nil {
			return "", err
		}
		passwd = prompted
	}

	if opts.KeyringSet {
		if err := a.Store.Set(service, opts.User, passwd); err != nil {
			return "", err
		}
	}

	return passwd, nil
}

// resolvePull interprets the pull-request selector: a JSON object hydrates
// the reference directly (deprecated), anything else is parsed as
// "[owner/]repo#number" and looked up through the API.
func (a *Activator) resolvePull(ctx context.Context, client *gogithub.Client, opts *schema.GithubOptions) (*github.PullRequest, error) {
	if strings.HasPrefix(strings.TrimSpace(opts.Pull), "{") {
		return github.HydratePull([]byte(opts.Pull))
	}

	sel, err := github.ParseSelector(opts.Pull, opts.User)
	if err != nil {
		return nil, err
	}
	return a.Lookup(ctx, client, sel)
}
