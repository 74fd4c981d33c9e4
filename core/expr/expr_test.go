package expr_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/josephlewis42/conduit/core/expr"
	"github.com/josephlewis42/conduit/core/logger"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	base := expr.Cmd("echo", "hi")
	next := expr.Cmd("wc", "-c")

	cases := []struct {
		name       string
		expression expr.Expression
		want       string
	}{
		{"empty", expr.Expression{}, "<empty>"},
		{"cmd", base, `cmd("echo", "hi")`},
		{"cmd quoting", expr.Cmd("printf", "a b", `c"d`), `cmd("printf", "a b", "c\"d")`},
		{"pipe", base.Pipe(next), `pipe(cmd("echo", "hi"), cmd("wc", "-c"))`},
		{"then", base.Then(next), `then(cmd("echo", "hi"), cmd("wc", "-c"))`},
		{"unchecked", base.Unchecked(), `unchecked(cmd("echo", "hi"))`},
		{"input", base.Input([]byte("abc")), `stdin_bytes(3, cmd("echo", "hi"))`},
		{"stdin path", base.Stdin("in.txt"), `stdin_path("in.txt", cmd("echo", "hi"))`},
		{"stdin file", base.StdinFile(os.Stdin), `stdin_file(cmd("echo", "hi"))`},
		{"stdin null", base.StdinNull(), `stdin_null(cmd("echo", "hi"))`},
		{"stdout path", base.Stdout("out.txt"), `stdout_path("out.txt", cmd("echo", "hi"))`},
		{"stdout capture", base.StdoutCapture(), `stdout_capture(cmd("echo", "hi"))`},
		{"stdout to stderr", base.StdoutToStderr(), `stdout_to_stderr(cmd("echo", "hi"))`},
		{"stderr null", base.StderrNull(), `stderr_null(cmd("echo", "hi"))`},
		{"stderr capture", base.StderrCapture(), `stderr_capture(cmd("echo", "hi"))`},
		{"stderr to stdout", base.StderrToStdout(), `stderr_to_stdout(cmd("echo", "hi"))`},
		{"env", base.Env("KEY", "value"), `env("KEY", "value", cmd("echo", "hi"))`},
		{"full env", base.FullEnv(map[string]string{"A": "1", "B": "2"}), `full_env(2 vars, cmd("echo", "hi"))`},
		{"dir", base.Dir("/tmp"), `dir("/tmp", cmd("echo", "hi"))`},
		{"logged", base.Logged(logger.NewTestLogger().Sessionless()), `logged(cmd("echo", "hi"))`},
		{
			"nested",
			base.Pipe(next.Unchecked()).Env("K", "V"),
			`env("K", "V", pipe(cmd("echo", "hi"), unchecked(cmd("wc", "-c"))))`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.expression.String())
		})
	}
}

func TestShellString(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell invocation differs on windows")
	}
	assert.Equal(t, `cmd("/bin/sh", "-c", "echo hi")`, expr.Shell("echo hi").String())
}

func TestBuildersDoNotMutate(t *testing.T) {
	base := expr.Cmd("echo", "hi")
	before := base.String()

	_ = base.Pipe(expr.Cmd("wc"))
	_ = base.Then(expr.Cmd("wc"))
	_ = base.Unchecked()
	_ = base.Input([]byte("x"))
	_ = base.Env("A", "1")
	_ = base.Dir("/tmp")
	_ = base.StdoutCapture()

	assert.Equal(t, before, base.String())
}
