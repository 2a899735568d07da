// Package exec runs git subprocesses on behalf of the extension and
// implements the two synthetic repository sync actions.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	log "github.com/charmbracelet/log"

	errUtils "github.com/timid-ci/timid-github/errors"
	"github.com/timid-ci/timid-github/pkg/step"
)

// SSHErrorMarker is the literal marker of a transient SSH-layer connection
// failure. It is the sole retry trigger: matching on the exact message
// avoids retrying genuine merge conflicts or auth failures that also exit
// non-zero.
const SSHErrorMarker = "ssh_exchange_identification: Connection closed by remote host"

const gitCommand = "git"

// CommandRunner executes a single subprocess with captured output. The
// production implementation spawns the process; tests script outcomes.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)
}

// osCommandRunner executes subprocesses via os/exec with stdout and stderr
// captured, never inherited.
type osCommandRunner struct{}

func (osCommandRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
		}
		// The command could not be started at all.
		return nil, nil, -1, err
	}

	return stdout.Bytes(), stderr.Bytes(), 0, nil
}

// Options control a single git invocation.
type Options struct {
	// Retries is the number of attempts when the failure matches the SSH
	// marker. Zero means one attempt.
	Retries int

	// NoRaise suppresses the error on a non-zero exit; callers use it to
	// probe state without aborting.
	NoRaise bool
}

// Runner invokes git with SSH-flake retries and exponential backoff. The
// working directory comes from the run environment; child processes receive
// it explicitly, the process working directory is never changed.
type Runner struct {
	env   *step.Environment
	cmd   CommandRunner
	sleep func(time.Duration)
}

// NewRunner returns a Runner operating in env.
func NewRunner(env *step.Environment) *Runner {
	return &Runner{
		env:   env,
		cmd:   osCommandRunner{},
		sleep: time.Sleep,
	}
}

// Env returns the run environment the runner operates in.
func (r *Runner) Env() *step.Environment {
	return r.env
}

// Git runs a git subcommand and returns its captured standard output.
//
// Attempts are made up to opts.Retries times; before the second and each
// subsequent attempt the runner sleeps 1, 2, 4, ... seconds. Only failures
// carrying SSHErrorMarker in their captured output are retried. On a final
// non-zero exit the returned error wraps ErrGitCommandFailed and carries the
// shell-quoted command line, unless opts.NoRaise is set, in which case the
// last captured stdout is returned without error.
func (r *Runner) Git(ctx context.Context, opts Options, args ...string) ([]byte, error) {
	retries := opts.Retries
	if retries < 1 {
		retries = 1
	}

	argv := append([]string{gitCommand}, args...)
	log.Debug("running git", "args", strings.Join(args, " "), "dir", r.env.Cwd(), "retries", retries)

	var stdout, stderr []byte
	exitCode := 0

	sleepTime := 1 * time.Second
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			r.sleep(sleepTime)
			sleepTime <<= 1
		}

		var err error
		stdout, stderr, exitCode, err = r.cmd.Run(ctx, r.env.Cwd(), gitCommand, args...)
		if err != nil {
			return nil, err
		}

		if exitCode != 0 && (bytes.Contains(stdout, []byte(SSHErrorMarker)) || bytes.Contains(stderr, []byte(SSHErrorMarker))) {
			log.Debug("transient SSH failure, retrying", "attempt", attempt, "of", retries)
			continue
		}

		break
	}

	if exitCode != 0 && !opts.NoRaise {
		return nil, &errUtils.GitExitError{
			Command: shellescape.QuoteCommand(argv),
			Code:    exitCode,
		}
	}

	return stdout, nil
}
