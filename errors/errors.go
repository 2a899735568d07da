// Package errors defines sentinel errors and error helpers shared across
// timid-github. Import as errUtils to avoid shadowing the stdlib errors
// package.
package errors

import (
	"errors"
	"fmt"
	"os"
)

// OsExit is a variable for testing, so we can mock os.Exit.
var OsExit = os.Exit

var (
	// ErrGitCommandFailed indicates a git subprocess exited non-zero after
	// any configured retries were exhausted.
	ErrGitCommandFailed = errors.New("git command failed")

	// ErrPullRequestNotFound indicates the pull-request selector could not
	// be resolved against the GitHub API.
	ErrPullRequestNotFound = errors.New("pull request not found")

	// ErrInvalidPullSelector indicates a malformed pull-request selector.
	ErrInvalidPullSelector = errors.New("invalid pull request selector")

	// ErrNoCommitsInPull indicates a pull request with an empty commit list.
	ErrNoCommitsInPull = errors.New("pull request has no commits")

	// ErrCredentialsNotFound indicates credentials were not found for the given key.
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrNoTerminal indicates an interactive prompt was required but stdin
	// is not a terminal.
	ErrNoTerminal = errors.New("stdin is not a terminal")

	// ErrStatusPostFailed indicates a commit-status update was rejected by
	// the GitHub API.
	ErrStatusPostFailed = errors.New("failed to post commit status")

	// ErrInvalidOverrideStatus indicates an override status outside the
	// accepted vocabulary.
	ErrInvalidOverrideStatus = errors.New("override status must be one of \"pending\", \"error\", or \"failure\"")

	// ErrStepFile indicates the step-description file could not be read or parsed.
	ErrStepFile = errors.New("invalid step description file")
)

// GitExitError carries the shell-quoted command line and exit code of a
// failed git invocation. It wraps ErrGitCommandFailed so callers can match
// with errors.Is and recover the exit code with errors.As.
type GitExitError struct {
	Command string
	Code    int
}

func (e *GitExitError) Error() string {
	return fmt.Sprintf("git command %q returned %d", e.Command, e.Code)
}

func (e *GitExitError) Unwrap() error {
	return ErrGitCommandFailed
}

// GetExitCode extracts an exit code from err, defaulting to 1 for any
// non-nil error that does not carry one.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	var gitErr *GitExitError
	if errors.As(err, &gitErr) {
		return gitErr.Code
	}
	return 1
}
