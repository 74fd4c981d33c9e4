package commands

import (
	"fmt"
	"io"
)

// Cat implements the UNIX cat command.
func Cat(p *Proc) int {
	cmd := &SimpleCommand{
		Use:   "cat [FILE] ...",
		Short: "Concatenate files to standard output.",
	}

	opt := cmd.Flags()

	return cmd.Run(p, func() int {
		args := opt.Args()
		if len(args) == 0 {
			args = []string{"-"}
		}

		for _, arg := range args {
			if arg == "-" {
				if _, err := io.Copy(p.Stdout, p.Stdin); err != nil {
					fmt.Fprintf(p.Stderr, "cat: %v\n", err)
					return 1
				}
				continue
			}

			fd, err := p.FS.Open(arg)
			if err != nil {
				fmt.Fprintf(p.Stderr, "cat: %v\n", err)
				return 1
			}

			_, err = io.Copy(p.Stdout, fd)
			fd.Close()
			if err != nil {
				fmt.Fprintf(p.Stderr, "cat: %v\n", err)
				return 1
			}
		}

		return 0
	})
}

var _ AppletFunc = Cat

func init() {
	registerApplet("cat", Cat)
}
