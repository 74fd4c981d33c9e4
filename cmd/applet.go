package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/josephlewis42/conduit/commands"
)

// appletCmd represents the applet command
var appletCmd = &cobra.Command{
	Use:   "applet [NAME [ARGS...]]",
	Short: "Run one of the built-in applets against the real OS.",
	Long: `Run a built-in applet, or list the available applets when called
without arguments. Applets are small hermetic commands used in tests
and demos, similar to a multicall binary.`,
	// The applet owns everything after its name, including dashed args.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if len(args) == 0 {
			for _, name := range commands.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}
		if args[0] == "--help" || args[0] == "-h" {
			return cmd.Help()
		}

		os.Exit(commands.Run(args[0], commands.NewOSProc(args)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(appletCmd)
}
