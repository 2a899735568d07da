package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/timid-ci/timid-github/errors"
	"github.com/timid-ci/timid-github/pkg/step"
)

// scriptedAction returns a fixed result or error.
type scriptedAction struct {
	result step.Result
	err    error
	runs   int
}

func (a *scriptedAction) Execute(ctx context.Context, runCtx *step.Context) (step.Result, error) {
	a.runs++
	return a.result, a.err
}

func (a *scriptedAction) ValidateConfig(config map[string]any) error {
	return nil
}

// recordingExtension records the hook invocations it sees.
type recordingExtension struct {
	events   []string
	skip     map[string]bool
	finalGot any
}

func (e *recordingExtension) ReadSteps(runCtx *step.Context, steps []step.Step) []step.Step {
	e.events = append(e.events, "read_steps")
	return steps
}

func (e *recordingExtension) PreStep(ctx context.Context, s step.Step, idx int) bool {
	e.events = append(e.events, "pre:"+s.Name)
	return e.skip[s.Name]
}

func (e *recordingExtension) PostStep(ctx context.Context, s step.Step, idx int, res step.Result) {
	e.events = append(e.events, "post:"+s.Name+":"+string(res.State))
}

func (e *recordingExtension) Finalize(ctx context.Context, result any) any {
	e.events = append(e.events, "finalize")
	e.finalGot = result
	return result
}

func newRunContext(t *testing.T) *step.Context {
	t.Helper()
	return step.NewContext(step.NewEnvironment(t.TempDir()))
}

func namedStep(name string, action step.Action) step.Step {
	return step.Step{Name: name, Action: action}
}

func TestRunInvokesHooksInOrder(t *testing.T) {
	ext := &recordingExtension{}
	ok := &scriptedAction{result: step.Success()}

	result := New(ext).Run(context.Background(), newRunContext(t), []step.Step{
		namedStep("one", ok),
		namedStep("two", ok),
	})

	assert.Nil(t, result)
	assert.Equal(t, []string{
		"read_steps",
		"pre:one", "post:one:success",
		"pre:two", "post:two:success",
		"finalize",
	}, ext.events)
	assert.Equal(t, 2, ok.runs)
}

func TestRunSkippedStepDoesNotExecute(t *testing.T) {
	ext := &recordingExtension{skip: map[string]bool{"one": true}}
	skipped := &scriptedAction{result: step.Success()}
	ran := &scriptedAction{result: step.Success()}

	result := New(ext).Run(context.Background(), newRunContext(t), []step.Step{
		namedStep("one", skipped),
		namedStep("two", ran),
	})

	assert.Nil(t, result)
	assert.Zero(t, skipped.runs)
	assert.Equal(t, 1, ran.runs)
	assert.Equal(t, []string{
		"read_steps",
		"pre:one",
		"pre:two", "post:two:success",
		"finalize",
	}, ext.events)
}

func TestRunStopsOnFailedStep(t *testing.T) {
	ext := &recordingExtension{}
	failing := &scriptedAction{result: step.Result{State: step.StateFailure}}
	never := &scriptedAction{result: step.Success()}

	result := New(ext).Run(context.Background(), newRunContext(t), []step.Step{
		namedStep("bad", failing),
		namedStep("after", never),
	})

	// A step that ran and failed produces a failure message, not an error.
	assert.Equal(t, `step "bad" failed`, result)
	assert.Equal(t, result, ext.finalGot)
	assert.Zero(t, never.runs)
}

func TestRunAbortsOnActionError(t *testing.T) {
	ext := &recordingExtension{}
	bootErr := errors.New("cannot clone")
	broken := &scriptedAction{err: bootErr}

	result := New(ext).Run(context.Background(), newRunContext(t), []step.Step{
		namedStep("clone", broken),
	})

	assert.Equal(t, bootErr, result)
	// The action never produced a result, so no post hook fires.
	assert.Equal(t, []string{"read_steps", "pre:clone", "finalize"}, ext.events)
}

func TestRunWithoutExtension(t *testing.T) {
	ok := &scriptedAction{result: step.Success()}

	result := New(nil).Run(context.Background(), newRunContext(t), []step.Step{
		namedStep("one", ok),
	})

	assert.Nil(t, result)
	assert.Equal(t, 1, ok.runs)
}

func TestLoadSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timid.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: Format check
  description: Check formatting
  run: gofmt -l .
- run: go test ./...
`), 0o644))

	steps, err := LoadSteps(path)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, "Format check", steps[0].Name)
	assert.Equal(t, "Check formatting", steps[0].Description)
	assert.Equal(t, path+":0", steps[0].Address.String())

	// A step without a name displays its command.
	assert.Equal(t, "go test ./...", steps[1].Name)
	assert.Equal(t, path+":1", steps[1].Address.String())
}

func TestLoadStepsErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSteps(filepath.Join(t.TempDir(), "absent.yml"))
		assert.ErrorIs(t, err, errUtils.ErrStepFile)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "timid.yml")
		require.NoError(t, os.WriteFile(path, []byte("{bad"), 0o644))
		_, err := LoadSteps(path)
		assert.ErrorIs(t, err, errUtils.ErrStepFile)
	})

	t.Run("step without command", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "timid.yml")
		require.NoError(t, os.WriteFile(path, []byte("- name: no command\n"), 0o644))
		_, err := LoadSteps(path)
		assert.ErrorIs(t, err, errUtils.ErrStepFile)
	})
}
