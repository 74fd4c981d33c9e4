package commands

import (
	"bytes"
	"fmt"
	"strconv"
)

// Spew writes N bytes of filler to stdout. It exists to push more data
// through a pipeline than an OS pipe buffers.
func Spew(p *Proc) int {
	cmd := &SimpleCommand{
		Use:   "spew N",
		Short: "Write N bytes of filler to standard output.",
	}

	opt := cmd.Flags()

	return cmd.Run(p, func() int {
		args := opt.Args()
		if len(args) != 1 {
			fmt.Fprintln(p.Stderr, "spew: expected exactly one N argument")
			return 1
		}

		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || n < 0 {
			fmt.Fprintf(p.Stderr, "spew: invalid byte count %q\n", args[0])
			return 1
		}

		block := bytes.Repeat([]byte{'x'}, 8192)
		for n > 0 {
			if int64(len(block)) > n {
				block = block[:n]
			}

			wrote, err := p.Stdout.Write(block)
			if err != nil {
				fmt.Fprintf(p.Stderr, "spew: %v\n", err)
				return 1
			}
			n -= int64(wrote)
		}

		return 0
	})
}

var _ AppletFunc = Spew

func init() {
	registerApplet("spew", Spew)
}
