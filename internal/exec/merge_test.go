package exec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timid-ci/timid-github/pkg/step"
)

func newMergeFixture(t *testing.T, fn func(n int, dir string, args []string) outcome) (*MergeAction, *funcRunner, *step.Context) {
	t.Helper()

	fake := &funcRunner{fn: fn}
	env := step.NewEnvironment(t.TempDir())
	runner := &Runner{env: env, cmd: fake, sleep: func(time.Duration) {}}

	return NewMergeAction(runner, testSpec()), fake, step.NewContext(env)
}

func TestMergeSequence(t *testing.T) {
	action, fake, runCtx := newMergeFixture(t, allSucceed)

	res, err := action.Execute(context.Background(), runCtx)
	require.NoError(t, err)
	assert.Equal(t, step.StateSuccess, res.State)

	expected := [][]string{
		{"branch", "-D", "contributor-feature"},
		{"checkout", "-b", "contributor-feature", "master"},
		{"pull", "git://github.test/contributor/widget", "feature"},
		{"checkout", "master"},
		{"merge", "contributor-feature"},
	}
	require.Len(t, fake.calls, len(expected))
	for i, want := range expected {
		assert.Equal(t, want, fake.calls[i].args)
	}
}

func TestMergeIgnoresMissingLocalBranch(t *testing.T) {
	action, fake, runCtx := newMergeFixture(t, func(n int, dir string, args []string) outcome {
		if args[0] == "branch" {
			return outcome{stderr: "error: branch 'contributor-feature' not found", code: 1}
		}
		return outcome{}
	})

	res, err := action.Execute(context.Background(), runCtx)
	require.NoError(t, err)
	assert.Equal(t, step.StateSuccess, res.State)
	assert.Len(t, fake.calls, 5)
}

func TestMergeFailurePropagates(t *testing.T) {
	action, fake, runCtx := newMergeFixture(t, func(n int, dir string, args []string) outcome {
		if args[0] == "pull" {
			return outcome{stderr: "CONFLICT (content): merge conflict", code: 1}
		}
		return outcome{}
	})

	_, err := action.Execute(context.Background(), runCtx)
	require.Error(t, err)

	// The conflict stops the sequence: no retries, no further git calls.
	assert.Len(t, fake.calls, 3)
}
