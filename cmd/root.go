package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/conduit/core/logger"
)

var tracePath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "conduit",
	Short: "Compose child processes like shell pipelines",
	Long: `Conduit builds and runs pipelines of child processes with explicit
redirections, environment overrides and error checking.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// openTrace returns the event logger selected with --trace and a cleanup
// function. Without the flag every event is dropped.
func openTrace() (*logger.Logger, func(), error) {
	if tracePath == "" {
		return &logger.Logger{}, func() {}, nil
	}

	fd, err := os.OpenFile(tracePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, err
	}
	return logger.NewJSONLinesLogger(fd), func() { fd.Close() }, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tracePath, "trace", "", "append run events to this JSON-lines file")
}
