package step

import (
	"fmt"
	"sort"
	"strings"
)

// Environment is the mutable process-level state of a run. The working
// directory is read and written by the repository sync actions; runs are
// single-threaded, so access needs no locking, but anything introducing
// concurrency must serialize on it (single-writer discipline).
type Environment struct {
	cwd string
}

// NewEnvironment returns an Environment rooted at dir.
func NewEnvironment(dir string) *Environment {
	return &Environment{cwd: dir}
}

// Cwd returns the current working directory of the run.
func (e *Environment) Cwd() string {
	return e.cwd
}

// Chdir changes the working directory of the run. It does not touch the
// process working directory; subprocesses receive it explicitly.
func (e *Environment) Chdir(dir string) {
	e.cwd = dir
}

// Context is the run-scoped context threaded through every step and
// extension hook. One instance per run.
type Context struct {
	Env *Environment

	variables map[string]string
	sensitive map[string]bool
}

// NewContext returns a Context with an empty variable set.
func NewContext(env *Environment) *Context {
	return &Context{
		Env:       env,
		variables: map[string]string{},
		sensitive: map[string]bool{},
	}
}

// SetVariable sets a run variable for downstream step consumption.
func (c *Context) SetVariable(key, value string) {
	c.variables[key] = value
}

// SetVariables sets several run variables at once.
func (c *Context) SetVariables(vars map[string]string) {
	for k, v := range vars {
		c.variables[k] = v
	}
}

// Variable returns the value of a run variable.
func (c *Context) Variable(key string) (string, bool) {
	v, ok := c.variables[key]
	return v, ok
}

// DeclareSensitive marks a variable as sensitive. Sensitive values are
// masked when the context is rendered.
func (c *Context) DeclareSensitive(key string) {
	c.sensitive[key] = true
}

// String renders the variable set with sensitive values masked.
func (c *Context) String() string {
	keys := make([]string, 0, len(c.variables))
	for k := range c.variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := c.variables[k]
		if c.sensitive[k] {
			v = "********"
		}
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}
	return b.String()
}
