// Package schema defines configuration structs shared across packages.
package schema

// GithubOptions holds the parsed values of the GitHub integration flags.
type GithubOptions struct {
	// API is the base URL of the GitHub API to talk to.
	API string

	// User is the username used to authenticate to the API.
	User string

	// Pass is the password used to authenticate to the API. Empty means
	// "resolve from the keyring or prompt interactively".
	Pass string

	// KeyringSet requests persisting the resolved password to the keyring.
	KeyringSet bool

	// Pull selects the pull request to test: "[owner/]repo#number" or a raw
	// JSON pull-request object (deprecated). An empty value leaves the
	// extension inactive.
	Pull string

	// Repo selects the base repository URL: "ssh", "git", "https", or a
	// literal URL.
	Repo string

	// ChangeRepo selects the change repository URL the same way. Empty
	// defaults to the Repo selection.
	ChangeRepo string

	// StatusURL is an optional URL attached to status updates.
	StatusURL string

	// Override is a deprecated JSON document overriding the final status.
	Override string

	// OverrideStatus, OverrideText and OverrideURL override individual
	// fields of the final status and take precedence over Override.
	OverrideStatus string
	OverrideText   string
	OverrideURL    string
}

// SyncSpec carries everything the repository sync actions need to know about
// the pull request under test.
type SyncSpec struct {
	// RepoName is the bare repository name, excluding the owner.
	RepoName string

	// RepoURL is the base repository URL to clone from.
	RepoURL string

	// RepoBranch is the base branch the pull request targets.
	RepoBranch string

	// ChangeURL is the repository URL the pull request is merged from.
	ChangeURL string

	// ChangeBranch is the head branch of the pull request.
	ChangeBranch string

	// HeadLogin is the login of the pull-request author, used to compute
	// the local topic branch name.
	HeadLogin string
}
