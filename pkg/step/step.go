// Package step defines the step model consumed by the runner and by
// extensions: steps, actions, results, and the run-scoped context.
package step

import (
	"context"
	"fmt"
)

// State is the terminal state of an executed step.
type State string

const (
	// StateSuccess indicates the step completed successfully.
	StateSuccess State = "success"

	// StateSkipped indicates the step was skipped.
	StateSkipped State = "skipped"

	// StateFailure indicates the step ran and failed.
	StateFailure State = "failure"

	// StateError indicates the step could not be run.
	StateError State = "error"
)

// Result describes the outcome of executing a step.
type Result struct {
	State   State
	Message string
}

// OK reports whether the result requires no failure handling. Skipped steps
// count as OK: a later step or the final reconciliation covers them.
func (r Result) OK() bool {
	return r.State == StateSuccess || r.State == StateSkipped
}

// Success returns a successful result.
func Success() Result {
	return Result{State: StateSuccess}
}

// Address identifies where a step was defined. Synthetic steps injected by
// extensions use an address that cannot collide with user-authored steps.
type Address struct {
	File  string
	Index int
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.File, a.Index)
}

// Action is the executable part of a step.
type Action interface {
	// Execute runs the action. A non-nil error aborts the whole run; a
	// Result with a non-OK state is reported but leaves the run loop to
	// decide whether to continue.
	Execute(ctx context.Context, runCtx *Context) (Result, error)

	// ValidateConfig validates the step configuration for actions that
	// accept one. Synthetic actions take no configuration and return nil.
	ValidateConfig(config map[string]any) error
}

// Step pairs an action with its display metadata.
type Step struct {
	Name        string
	Description string
	Address     Address
	Action      Action
}
