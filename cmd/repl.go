package cmd

import (
	"io"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively run pipelines.",
	Long: `Read pipelines from the terminal one line at a time and run them,
reporting non-zero exit statuses between lines. Type "exit" or press
Ctrl-D to leave.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		rl, err := readline.New("conduit> ")
		if err != nil {
			return err
		}
		defer rl.Close()

		log, cleanup, err := openTrace()
		if err != nil {
			return err
		}
		defer cleanup()

		errPrint := color.New(color.FgRed, color.Bold)

		for {
			line, err := rl.Readline()

			switch {
			case err == io.EOF:
				return nil // Input closed, quit.

			case err == readline.ErrInterrupt:
				continue

			case err != nil:
				return err

			case strings.TrimSpace(line) == "":
				continue

			case strings.TrimSpace(line) == "exit":
				return nil
			}

			e, err := ParseLine(line)
			if err != nil {
				errPrint.Fprintf(cmd.ErrOrStderr(), "conduit: %v\n", err)
				continue
			}

			session := log.NewSession()
			session.SessionStarted(line)

			// Unchecked so a failing pipeline reports its status and the
			// loop keeps going.
			output, err := e.Unchecked().Logged(session).Run()
			if err != nil {
				session.SessionFinished(-1, err)
				errPrint.Fprintf(cmd.ErrOrStderr(), "conduit: %v\n", err)
				continue
			}

			session.SessionFinished(output.Status, nil)
			if output.Status != 0 {
				errPrint.Fprintf(cmd.ErrOrStderr(), "exit status %d\n", output.Status)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
