package commands

import (
	"fmt"
)

// Printenv prints the value of a single environment variable. Unset
// variables print as an empty line.
func Printenv(p *Proc) int {
	cmd := &SimpleCommand{
		Use:   "printenv NAME",
		Short: "Print the value of an environment variable.",
	}

	opt := cmd.Flags()

	return cmd.Run(p, func() int {
		args := opt.Args()
		if len(args) != 1 {
			fmt.Fprintln(p.Stderr, "printenv: expected exactly one NAME argument")
			return 1
		}

		fmt.Fprintln(p.Stdout, p.Getenv(args[0]))

		return 0
	})
}

var _ AppletFunc = Printenv

func init() {
	registerApplet("printenv", Printenv)
}
