// Package runner is a minimal sequential step runner: enough of the timid
// execution loop to drive the GitHub extension end to end. Steps run in
// order; the extension hooks wrap each step and the run's completion.
package runner

import (
	"context"
	"fmt"
	"os"

	log "github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	errUtils "github.com/timid-ci/timid-github/errors"
	"github.com/timid-ci/timid-github/internal/exec"
	"github.com/timid-ci/timid-github/pkg/step"
)

// Extension is the lifecycle contract the runner drives. All hooks are
// optional in the host framework; here the whole extension is optional
// instead (a nil Extension runs steps without integration).
type Extension interface {
	ReadSteps(runCtx *step.Context, steps []step.Step) []step.Step
	PreStep(ctx context.Context, s step.Step, idx int) bool
	PostStep(ctx context.Context, s step.Step, idx int, res step.Result)
	Finalize(ctx context.Context, result any) any
}

// Runner executes a list of steps sequentially.
type Runner struct {
	ext Extension
}

// New returns a Runner. ext may be nil.
func New(ext Extension) *Runner {
	return &Runner{ext: ext}
}

// Run executes the steps in order, invoking the extension hooks around each
// one and at completion. The returned value is the run result after
// finalization: nil on success, an error when a step could not be run, or a
// failure message string when a step ran and failed.
func (r *Runner) Run(ctx context.Context, runCtx *step.Context, steps []step.Step) any {
	return r.finalize(ctx, r.run(ctx, runCtx, steps))
}

func (r *Runner) run(ctx context.Context, runCtx *step.Context, steps []step.Step) any {
	if r.ext != nil {
		steps = r.ext.ReadSteps(runCtx, steps)
	}

	for idx, s := range steps {
		if r.ext != nil && r.ext.PreStep(ctx, s, idx) {
			log.Info("skipping step", "step", s.Name)
			continue
		}

		log.Info("running step", "step", s.Name, "address", s.Address)
		res, err := s.Action.Execute(ctx, runCtx)
		if err != nil {
			return err
		}

		if r.ext != nil {
			r.ext.PostStep(ctx, s, idx, res)
		}
		if !res.OK() {
			return fmt.Sprintf("step %q failed", s.Name)
		}
	}

	return nil
}

func (r *Runner) finalize(ctx context.Context, result any) any {
	if r.ext == nil {
		return result
	}
	return r.ext.Finalize(ctx, result)
}

// stepSpec is one entry of a step description file.
type stepSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Run         string `yaml:"run"`
}

// LoadSteps reads a YAML step description file: a list of {name, run}
// entries executed through the shell.
func LoadSteps(path string) ([]step.Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUtils.ErrStepFile, err)
	}

	var specs []stepSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("%w: %w", errUtils.ErrStepFile, err)
	}

	steps := make([]step.Step, 0, len(specs))
	for idx, spec := range specs {
		if spec.Run == "" {
			return nil, fmt.Errorf("%w: step %d has no command", errUtils.ErrStepFile, idx)
		}
		name := spec.Name
		if name == "" {
			name = spec.Run
		}
		steps = append(steps, step.Step{
			Name:        name,
			Description: spec.Description,
			Address:     step.Address{File: path, Index: idx},
			Action:      &exec.ShellAction{Command: spec.Run},
		})
	}

	return steps, nil
}
