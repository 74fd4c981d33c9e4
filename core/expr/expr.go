package expr

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/josephlewis42/conduit/core/logger"
)

// Expression describes one or more commands to run: how their standard
// streams are wired, the environment and directory they see, and how their
// exit statuses roll up into a single result.
//
// Expressions are cheap immutable values. Every builder method returns a
// new Expression and never modifies its receiver, so partial pipelines can
// be shared, extended and evaluated from several goroutines at once, and
// the same Expression can be run any number of times.
type Expression struct {
	node exprNode
}

type exprNode interface {
	// exec spawns the processes this node describes and returns the handle
	// used to wait for them. Implementations must leave already-spawned
	// children reaped when they return an error.
	exec(ctx *ioContext) (handleNode, error)
	repr() string
}

// Cmd builds an expression that runs a single program. The first argument
// names the program and the rest are passed through verbatim with no shell
// interpretation; program lookup follows os/exec rules, and a relative
// program path resolves against the directory set with Dir.
func Cmd(name string, args ...string) Expression {
	return Expression{node: &cmdNode{argv: append([]string{name}, args...)}}
}

// Shell builds an expression that hands the whole line to the platform
// shell: /bin/sh -c on unix-likes, cmd.exe /C on windows.
func Shell(command string) Expression {
	if runtime.GOOS == "windows" {
		return Cmd("cmd.exe", "/C", command)
	}
	return Cmd("/bin/sh", "-c", command)
}

// Pipe connects the receiver's stdout to next's stdin, like "left | right"
// in a shell. Both sides run concurrently.
func (e Expression) Pipe(next Expression) Expression {
	return Expression{node: &pipeNode{left: e.node, right: next.node}}
}

// Then runs the receiver to completion and only afterwards runs next, like
// "left; right" in a shell. Both sides always run; a failure on either
// side is folded into the result afterwards.
func (e Expression) Then(next Expression) Expression {
	return Expression{node: &thenNode{left: e.node, right: next.node}}
}

// Unchecked tolerates non-zero exit statuses from the wrapped expression.
// They are still reported through Output.Status, but no longer make Run,
// Read or Wait fail. Spawn and I/O errors are never suppressed.
func (e Expression) Unchecked() Expression {
	return Expression{node: &uncheckedNode{inner: e.node}}
}

// Input feeds the given bytes to the expression's standard input through a
// pipe serviced by a background writer. A child that exits without
// consuming all of it is not an error.
func (e Expression) Input(data []byte) Expression {
	copied := make([]byte, len(data))
	copy(copied, data)
	return e.redirect(streamStdin, &ioNode{mode: modeInput, data: copied})
}

// Stdin reads the expression's standard input from the named file, opened
// when each command spawns. Relative paths resolve against the directory
// set with Dir.
func (e Expression) Stdin(path string) Expression {
	return e.redirect(streamStdin, &ioNode{mode: modePath, path: path})
}

// StdinFile reads the expression's standard input from an open file. The
// engine borrows the handle: it is never closed here and must stay open
// for every evaluation that uses it.
func (e Expression) StdinFile(f *os.File) Expression {
	return e.redirect(streamStdin, &ioNode{mode: modeFile, file: f})
}

// StdinNull connects the expression's standard input to the null device.
func (e Expression) StdinNull() Expression {
	return e.redirect(streamStdin, &ioNode{mode: modeNull})
}

// Stdout writes the expression's standard output to the named file,
// created or truncated when each command spawns. Relative paths resolve
// against the directory set with Dir.
func (e Expression) Stdout(path string) Expression {
	return e.redirect(streamStdout, &ioNode{mode: modePath, path: path})
}

// StdoutFile writes the expression's standard output to an open file. The
// engine borrows the handle and never closes it.
func (e Expression) StdoutFile(f *os.File) Expression {
	return e.redirect(streamStdout, &ioNode{mode: modeFile, file: f})
}

// StdoutNull discards the expression's standard output.
func (e Expression) StdoutNull() Expression {
	return e.redirect(streamStdout, &ioNode{mode: modeNull})
}

// StdoutCapture collects the expression's standard output into
// Output.Stdout instead of inheriting the parent's stdout.
func (e Expression) StdoutCapture() Expression {
	return e.redirect(streamStdout, &ioNode{mode: modeCapture})
}

// StdoutToStderr sends the expression's standard output wherever its
// standard error is bound at this point, like 1>&2 in a shell.
func (e Expression) StdoutToStderr() Expression {
	return e.redirect(streamStdout, &ioNode{mode: modeSwap})
}

// Stderr writes the expression's standard error to the named file, created
// or truncated when each command spawns. Relative paths resolve against
// the directory set with Dir.
func (e Expression) Stderr(path string) Expression {
	return e.redirect(streamStderr, &ioNode{mode: modePath, path: path})
}

// StderrFile writes the expression's standard error to an open file. The
// engine borrows the handle and never closes it.
func (e Expression) StderrFile(f *os.File) Expression {
	return e.redirect(streamStderr, &ioNode{mode: modeFile, file: f})
}

// StderrNull discards the expression's standard error.
func (e Expression) StderrNull() Expression {
	return e.redirect(streamStderr, &ioNode{mode: modeNull})
}

// StderrCapture collects the expression's standard error into
// Output.Stderr instead of inheriting the parent's stderr.
func (e Expression) StderrCapture() Expression {
	return e.redirect(streamStderr, &ioNode{mode: modeCapture})
}

// StderrToStdout sends the expression's standard error wherever its
// standard output is bound at this point, like 2>&1 in a shell.
func (e Expression) StderrToStdout() Expression {
	return e.redirect(streamStderr, &ioNode{mode: modeSwap})
}

func (e Expression) redirect(stream int, node *ioNode) Expression {
	node.stream = stream
	node.inner = e.node
	return Expression{node: node}
}

// Env runs the expression with name set to value, on top of whatever
// environment is already in effect. The innermost Env for a name wins.
func (e Expression) Env(name, value string) Expression {
	return Expression{node: &envNode{name: name, value: value, inner: e.node}}
}

// FullEnv runs the expression with exactly the given variables, discarding
// the parent's environment and any Env layered outside this call.
func (e Expression) FullEnv(env map[string]string) Expression {
	copied := make(map[string]string, len(env))
	for k, v := range env {
		copied[k] = v
	}
	return Expression{node: &fullEnvNode{env: copied, inner: e.node}}
}

// Dir sets the working directory the expression's commands run in.
func (e Expression) Dir(path string) Expression {
	return Expression{node: &dirNode{dir: path, inner: e.node}}
}

// Logged emits spawn and exit events for every command in the expression
// to the given session log.
func (e Expression) Logged(log *logger.SessionLogger) Expression {
	return Expression{node: &logNode{log: log, inner: e.node}}
}

// String renders the expression tree for debugging and logs. The format is
// stable enough to assert on in tests but is not an API contract.
func (e Expression) String() string {
	if e.node == nil {
		return "<empty>"
	}
	return e.node.repr()
}

const (
	streamStdin = iota
	streamStdout
	streamStderr
)

const (
	modeNull = iota
	modePath
	modeFile
	modeCapture
	modeSwap
	modeInput
)

type cmdNode struct {
	argv []string
}

func (n *cmdNode) repr() string {
	quoted := make([]string, len(n.argv))
	for i, arg := range n.argv {
		quoted[i] = strconv.Quote(arg)
	}
	return "cmd(" + strings.Join(quoted, ", ") + ")"
}

type pipeNode struct {
	left, right exprNode
}

func (n *pipeNode) repr() string {
	return fmt.Sprintf("pipe(%s, %s)", n.left.repr(), n.right.repr())
}

type thenNode struct {
	left, right exprNode
}

func (n *thenNode) repr() string {
	return fmt.Sprintf("then(%s, %s)", n.left.repr(), n.right.repr())
}

type uncheckedNode struct {
	inner exprNode
}

func (n *uncheckedNode) repr() string {
	return fmt.Sprintf("unchecked(%s)", n.inner.repr())
}

type ioNode struct {
	stream int
	mode   int
	path   string
	file   *os.File
	data   []byte
	inner  exprNode
}

func (n *ioNode) repr() string {
	stream := [...]string{"stdin", "stdout", "stderr"}[n.stream]
	switch n.mode {
	case modePath:
		return fmt.Sprintf("%s_path(%q, %s)", stream, n.path, n.inner.repr())
	case modeFile:
		return fmt.Sprintf("%s_file(%s)", stream, n.inner.repr())
	case modeCapture:
		return fmt.Sprintf("%s_capture(%s)", stream, n.inner.repr())
	case modeSwap:
		if n.stream == streamStdout {
			return fmt.Sprintf("stdout_to_stderr(%s)", n.inner.repr())
		}
		return fmt.Sprintf("stderr_to_stdout(%s)", n.inner.repr())
	case modeInput:
		return fmt.Sprintf("stdin_bytes(%d, %s)", len(n.data), n.inner.repr())
	default:
		return fmt.Sprintf("%s_null(%s)", stream, n.inner.repr())
	}
}

type envNode struct {
	name, value string
	inner       exprNode
}

func (n *envNode) repr() string {
	return fmt.Sprintf("env(%q, %q, %s)", n.name, n.value, n.inner.repr())
}

type fullEnvNode struct {
	env   map[string]string
	inner exprNode
}

func (n *fullEnvNode) repr() string {
	return fmt.Sprintf("full_env(%d vars, %s)", len(n.env), n.inner.repr())
}

type dirNode struct {
	dir   string
	inner exprNode
}

func (n *dirNode) repr() string {
	return fmt.Sprintf("dir(%q, %s)", n.dir, n.inner.repr())
}

type logNode struct {
	log   *logger.SessionLogger
	inner exprNode
}

func (n *logNode) repr() string {
	return fmt.Sprintf("logged(%s)", n.inner.repr())
}
