package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	getopt "github.com/pborman/getopt/v2"
	"github.com/spf13/afero"
)

// AppletFunc runs a built-in applet against a Proc and returns its exit
// code.
type AppletFunc func(p *Proc) int

// allApplets holds a list of all registered applets.
var allApplets = make(map[string]AppletFunc)

// registerApplet adds an applet under the given name.
func registerApplet(name string, applet AppletFunc) {
	allApplets[name] = applet
}

// Lookup returns the applet registered under name.
func Lookup(name string) (AppletFunc, bool) {
	applet, ok := allApplets[name]
	return applet, ok
}

// Names lists the registered applets in sorted order.
func Names() []string {
	var out []string
	for name := range allApplets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Run executes the named applet. Unknown names exit 127, the way a shell
// reports an unresolvable command.
func Run(name string, p *Proc) int {
	applet, ok := Lookup(name)
	if !ok {
		fmt.Fprintf(p.Stderr, "%s: applet not found\n", name)
		return 127
	}

	return applet(p)
}

// Proc is the process context an applet runs against. Tests supply
// in-memory implementations, real invocations use NewOSProc.
type Proc struct {
	// Args holds the full argv of the applet, name included.
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// FS resolves the file paths the applet touches.
	FS afero.Fs
	// Getenv looks up a single environment variable.
	Getenv func(name string) string
	// Getwd reports the current working directory.
	Getwd func() (string, error)
}

// NewOSProc creates a Proc bound to the real operating system.
func NewOSProc(args []string) *Proc {
	return &Proc{
		Args:   args,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		FS:     afero.NewOsFs(),
		Getenv: os.Getenv,
		Getwd:  os.Getwd,
	}
}

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was successful call the callback.
func (s *SimpleCommand) Run(p *Proc, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(p.Args, nil); err != nil {
		fmt.Fprintf(p.Stderr, "error: %s\n\n", err)

		s.PrintHelp(p.Stdout)
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(p.Stdout)
		return 0
	}

	return callback()
}
