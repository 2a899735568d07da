package main

import (
	"os"

	log "github.com/charmbracelet/log"

	"github.com/timid-ci/timid-github/cmd"
	errUtils "github.com/timid-ci/timid-github/errors"
)

func main() {
	// Use errUtils.OsExit to allow test interception.
	errUtils.OsExit(run())
}

// run executes the CLI and returns an exit code. The separation keeps
// deferred cleanup working, since os.Exit skips defers.
func run() int {
	err := cmd.Execute()
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		exitCode := errUtils.GetExitCode(err)
		log.Debug("exiting", "code", exitCode)
		return exitCode
	}
	return 0
}
