package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/josephlewis42/conduit/core/expr"
)

var (
	runLine      string
	runDir       string
	runEnv       []string
	runInput     string
	runUnchecked bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] -- PROG [ARGS...]",
	Short: "Run a command or a pipeline.",
	Long: `Run a single command given as arguments, or a full pipeline given
with -c using shell-like syntax:

  conduit run -- ls -l /tmp
  conduit run -c 'cat access.log | grep 404 > hits.txt'

Redirections written in the -c line apply to the whole pipeline.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		e, err := buildRunExpression(args)
		if err != nil {
			return err
		}
		return runExpression(cmd, e.String(), e)
	},
}

func buildRunExpression(args []string) (expr.Expression, error) {
	var e expr.Expression
	switch {
	case runLine != "" && len(args) > 0:
		return expr.Expression{}, errors.New("pass either -c or a command, not both")
	case runLine != "":
		parsed, err := ParseLine(runLine)
		if err != nil {
			return expr.Expression{}, err
		}
		e = parsed
	case len(args) == 0:
		return expr.Expression{}, errors.New("nothing to run")
	default:
		e = expr.Cmd(args[0], args[1:]...)
	}

	for _, pair := range runEnv {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return expr.Expression{}, fmt.Errorf("malformed --env value %q, want NAME=VALUE", pair)
		}
		e = e.Env(parts[0], parts[1])
	}
	if runDir != "" {
		e = e.Dir(runDir)
	}
	if runInput != "" {
		e = e.Input([]byte(runInput))
	}
	if runUnchecked {
		e = e.Unchecked()
	}
	return e, nil
}

// runExpression evaluates e with tracing attached and exits with the
// child's status when it failed.
func runExpression(cmd *cobra.Command, description string, e expr.Expression) error {
	log, cleanup, err := openTrace()
	if err != nil {
		return err
	}

	session := log.NewSession()
	session.SessionStarted(description)

	output, err := e.Logged(session).Run()

	statusErr := &expr.StatusError{}
	switch {
	case errors.As(err, &statusErr):
		session.SessionFinished(statusErr.Output.Status, err)
		cleanup()
		color.New(color.FgRed, color.Bold).Fprintf(cmd.ErrOrStderr(), "conduit: %v\n", err)
		os.Exit(statusErr.Output.Status)
	case err != nil:
		session.SessionFinished(-1, err)
		cleanup()
		return err
	}

	session.SessionFinished(output.Status, nil)
	cleanup()

	// Tolerated failures still propagate their status, just quietly.
	if output.Status != 0 {
		os.Exit(output.Status)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runLine, "command", "c", "", "run a full pipeline given as a single shell-like line")
	runCmd.Flags().StringVar(&runDir, "dir", "", "working directory for the pipeline")
	runCmd.Flags().StringArrayVar(&runEnv, "env", nil, "extra environment variable as NAME=VALUE, repeatable")
	runCmd.Flags().StringVar(&runInput, "input", "", "literal stdin for the pipeline")
	runCmd.Flags().BoolVar(&runUnchecked, "unchecked", false, "report non-zero statuses instead of failing on them")
}
