package extension

import (
	"encoding/json"
	"fmt"
	"os/user"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errUtils "github.com/timid-ci/timid-github/errors"
	"github.com/timid-ci/timid-github/pkg/github"
	"github.com/timid-ci/timid-github/pkg/schema"
)

// Environment variables sourcing flag defaults.
const (
	EnvAPI  = "TIMID_GITHUB_API"
	EnvUser = "TIMID_GITHUB_USER"
	EnvPass = "TIMID_GITHUB_PASS"
)

// envDefault returns the value of an environment variable through viper, so
// tests and callers can override the source uniformly.
func envDefault(key, fallback string) string {
	_ = viper.BindEnv(key)
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

// defaultUser returns the OS username, falling back to empty when it cannot
// be determined.
func defaultUser() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}

// RegisterFlags registers the GitHub integration flags on flags, binding
// them to opts. Defaults for the API, username and password come from the
// TIMID_GITHUB_API, TIMID_GITHUB_USER and TIMID_GITHUB_PASS environment
// variables.
func RegisterFlags(flags *pflag.FlagSet, opts *schema.GithubOptions) {
	flags.StringVar(&opts.API, "github-api", envDefault(EnvAPI, github.DefaultAPI),
		"Base URL of the GitHub API to search for the pull request")
	flags.StringVar(&opts.User, "github-user", envDefault(EnvUser, defaultUser()),
		"Username to authenticate to the GitHub API with")
	flags.StringVar(&opts.Pass, "github-pass", envDefault(EnvPass, ""),
		"Password to authenticate to the GitHub API with; resolved from the keyring or prompted for when omitted")
	flags.BoolVar(&opts.KeyringSet, "github-keyring-set", false,
		"Store the resolved password in the keyring, keyed by the API URL and username")
	flags.StringVar(&opts.Pull, "github-pull", "",
		"Pull request to test: \"repo#1\", \"org/repo#1\", or a JSON pull request object (deprecated); enables the GitHub extension")
	flags.StringVar(&opts.Repo, "github-repo", "git",
		"Repository URL to clone from: a full URL, or one of the tokens \"ssh\", \"git\", \"https\"")
	flags.StringVar(&opts.ChangeRepo, "github-change-repo", "",
		"Repository URL to merge the pull request from; same syntax as --github-repo, defaults to its selection")
	flags.StringVar(&opts.StatusURL, "github-status-url", "",
		"Optional URL to include in pull request status updates")
	flags.StringVar(&opts.Override, "github-override", "",
		"DEPRECATED: JSON object with \"status\", \"text\" and \"url\" keys overriding the final success status")
	flags.StringVar(&opts.OverrideStatus, "github-override-status", "",
		"Alternate final status when tests pass: \"pending\", \"error\" or \"failure\"; takes precedence over --github-override")
	flags.StringVar(&opts.OverrideText, "github-override-text", "",
		"Status text accompanying --github-override-status; takes precedence over --github-override")
	flags.StringVar(&opts.OverrideURL, "github-override-url", "",
		"Status URL accompanying --github-override-status; takes precedence over --github-override")
}

// ValidateOptions rejects option values outside the accepted vocabulary.
func ValidateOptions(opts *schema.GithubOptions) error {
	switch opts.OverrideStatus {
	case "", github.StatusPending, github.StatusError, github.StatusFailure:
		return nil
	default:
		return fmt.Errorf("%w: %q", errUtils.ErrInvalidOverrideStatus, opts.OverrideStatus)
	}
}

// FinalStatus builds the status reported when a run completes without
// per-step failure or exception. Defaults are overridden first by the
// deprecated combined JSON document, then by the discrete override flags;
// the discrete flags always win.
func FinalStatus(opts *schema.GithubOptions) github.Status {
	status := github.Status{
		State: github.StatusSuccess,
		Text:  "Tests passed!",
		URL:   opts.StatusURL,
	}

	if opts.Override != "" {
		var doc struct {
			Status *string `json:"status"`
			Text   *string `json:"text"`
			URL    *string `json:"url"`
		}
		// Invalid JSON is ignored, matching the documented behavior of the
		// deprecated flag.
		if err := json.Unmarshal([]byte(opts.Override), &doc); err == nil {
			if doc.Status != nil {
				status.State = *doc.Status
			}
			if doc.Text != nil {
				status.Text = *doc.Text
			}
			if doc.URL != nil {
				status.URL = *doc.URL
			}
		}
	}

	if opts.OverrideStatus != "" {
		status.State = opts.OverrideStatus
	}
	if opts.OverrideText != "" {
		status.Text = opts.OverrideText
	}
	if opts.OverrideURL != "" {
		status.URL = opts.OverrideURL
	}

	return status
}
