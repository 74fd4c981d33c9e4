package commands

import (
	"fmt"
)

// Pwd implements the UNIX pwd command.
func Pwd(p *Proc) int {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(p, func() int {
		pwd, err := p.Getwd()
		if err != nil {
			fmt.Fprintf(p.Stderr, "pwd: %v\n", err)
			return 1
		}

		fmt.Fprintln(p.Stdout, pwd)

		return 0
	})
}

var _ AppletFunc = Pwd

func init() {
	registerApplet("pwd", Pwd)
}
