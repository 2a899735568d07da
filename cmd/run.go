package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timid-ci/timid-github/internal/runner"
	"github.com/timid-ci/timid-github/pkg/extension"
	"github.com/timid-ci/timid-github/pkg/schema"
	"github.com/timid-ci/timid-github/pkg/step"
)

var (
	githubOpts schema.GithubOptions

	stepFile string
	workDir  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the test steps for a pull request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := workDir
		if dir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir = cwd
		}

		steps, err := runner.LoadSteps(stepFile)
		if err != nil {
			return err
		}

		runCtx := step.NewContext(step.NewEnvironment(dir))

		ext, err := extension.NewActivator().Activate(cmd.Context(), runCtx, &githubOpts)
		if err != nil {
			return err
		}

		// An interface holding a typed nil is not nil; only hand the
		// runner an active extension.
		var hooks runner.Extension
		if ext != nil {
			hooks = ext
		}

		result := runner.New(hooks).Run(cmd.Context(), runCtx, steps)
		switch v := result.(type) {
		case nil:
			return nil
		case error:
			return v
		default:
			return fmt.Errorf("%s", v)
		}
	},
}

func init() {
	runCmd.Flags().StringVarP(&stepFile, "file", "f", "timid.yml", "Step description file to run")
	runCmd.Flags().StringVar(&workDir, "work-dir", "", "Working directory for the run; defaults to the current directory")
	extension.RegisterFlags(runCmd.Flags(), &githubOpts)

	rootCmd.AddCommand(runCmd)
}
