package commands

import (
	"fmt"
	"strconv"
)

// Status implements a command that exits with the code it was given.
func Status(p *Proc) int {
	cmd := &SimpleCommand{
		Use:   "status CODE",
		Short: "Exit with the given status code.",
	}

	opt := cmd.Flags()

	return cmd.Run(p, func() int {
		args := opt.Args()
		if len(args) != 1 {
			fmt.Fprintln(p.Stderr, "status: expected exactly one CODE argument")
			return 1
		}

		code, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(p.Stderr, "status: invalid code %q\n", args[0])
			return 1
		}

		return code
	})
}

var _ AppletFunc = Status

func init() {
	registerApplet("status", Status)
}
