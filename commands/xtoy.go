package commands

import (
	"bytes"
	"fmt"
	"io"
)

// XToY implements a substitution filter, mapping "x" to "y" by default.
func XToY(p *Proc) int {
	cmd := &SimpleCommand{
		Use:   "xtoy [FROM TO]",
		Short: "Copy stdin to stdout replacing every FROM with TO.",
	}

	opt := cmd.Flags()

	return cmd.Run(p, func() int {
		from, to := "x", "y"
		args := opt.Args()
		switch len(args) {
		case 0:
		case 2:
			from, to = args[0], args[1]
		default:
			fmt.Fprintln(p.Stderr, "xtoy: expected zero or two arguments")
			return 1
		}

		data, err := io.ReadAll(p.Stdin)
		if err != nil {
			fmt.Fprintf(p.Stderr, "xtoy: %v\n", err)
			return 1
		}

		if _, err := p.Stdout.Write(bytes.ReplaceAll(data, []byte(from), []byte(to))); err != nil {
			fmt.Fprintf(p.Stderr, "xtoy: %v\n", err)
			return 1
		}

		return 0
	})
}

var _ AppletFunc = XToY

func init() {
	registerApplet("xtoy", XToY)
}
