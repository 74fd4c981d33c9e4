package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephlewis42/conduit/core/script"
)

// scriptCmd represents the script command
var scriptCmd = &cobra.Command{
	Use:   "script FILE",
	Short: "Run a pipeline described by a YAML script file.",
	Long: `Load a YAML pipeline description, validate it and run it.

A script names the pipeline stages plus optional env, dir and
redirection settings:

  env: {LC_ALL: C}
  stdout: sorted.txt
  pipeline:
    - argv: [cat, data.csv]
    - argv: [sort]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		s, err := script.Load(afero.NewOsFs(), args[0])
		if err != nil {
			return err
		}
		if err := s.Validate(); err != nil {
			return err
		}
		return runExpression(cmd, args[0], s.Compile())
	},
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}
