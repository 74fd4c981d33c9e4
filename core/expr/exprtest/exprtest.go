// Package exprtest runs expression tests against real subprocesses by
// re-executing the test binary in applet mode, so test suites don't need
// helper binaries built ahead of time.
package exprtest

import (
	"os"
	"testing"

	"github.com/josephlewis42/conduit/commands"
	"github.com/josephlewis42/conduit/core/expr"
)

// appletMarker switches a re-executed test binary into applet mode. It
// travels in argv rather than the environment so expressions that replace
// their whole environment still dispatch correctly.
const appletMarker = "applet"

// Main is a TestMain hook that dispatches applet re-executions:
//
//	func TestMain(m *testing.M) {
//		exprtest.Main(m)
//	}
func Main(m *testing.M) {
	if len(os.Args) >= 3 && os.Args[1] == appletMarker {
		os.Exit(commands.Run(os.Args[2], commands.NewOSProc(os.Args[2:])))
	}

	os.Exit(m.Run())
}

// Applet builds an expression that re-executes the current binary to run
// the named built-in applet. The binary path is absolute so applets keep
// working under working directory overrides.
func Applet(name string, args ...string) expr.Expression {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	argv := append([]string{appletMarker, name}, args...)
	return expr.Cmd(exe, argv...)
}
