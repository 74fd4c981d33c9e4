package expr

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/josephlewis42/conduit/core/logger"
)

// ioContext tracks the bindings in effect while a subtree is evaluated.
// Contexts are copied on the way down; only engine-owned refs need an
// explicit retain when a copy outlives the walk, which pending Then stages
// do via retained.
type ioContext struct {
	stdin  ioBinding
	stdout ioBinding
	stderr ioBinding
	env    map[string]string
	dir    string
	log    *logger.SessionLogger
	caps   *captureSet
}

// rootContext snapshots the parent process for one evaluation: inherited
// stdio and a copy of the environment taken exactly once.
func rootContext() *ioContext {
	return &ioContext{
		stdin:  fileBinding(os.Stdin),
		stdout: fileBinding(os.Stdout),
		stderr: fileBinding(os.Stderr),
		env:    environMap(os.Environ()),
		caps:   &captureSet{},
	}
}

// retained returns a copy of the context that stays valid after the walk
// has moved on, for stages that spawn later. release undoes it.
func (ctx *ioContext) retained() *ioContext {
	copied := *ctx
	for _, b := range []ioBinding{copied.stdin, copied.stdout, copied.stderr} {
		if b.kind == ioRef {
			b.ref.retain()
		}
	}
	return &copied
}

func (ctx *ioContext) release() {
	for _, b := range []ioBinding{ctx.stdin, ctx.stdout, ctx.stderr} {
		if b.kind == ioRef {
			b.ref.release()
		}
	}
}

func environMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		}
	}
	return out
}

func copyEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func flattenEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func (n *cmdNode) exec(ctx *ioContext) (handleNode, error) {
	cmd := exec.Command(n.argv[0], n.argv[1:]...)
	cmd.Dir = ctx.dir
	cmd.Env = flattenEnv(ctx.env)

	var cleanups []func()
	closeAll := func() {
		for _, cleanup := range cleanups {
			cleanup()
		}
	}

	stdin, cleanup, err := ctx.stdin.open(ctx.dir, false)
	if err != nil {
		return nil, fmt.Errorf("redirecting stdin for %s: %w", n.argv[0], err)
	}
	if cleanup != nil {
		cleanups = append(cleanups, cleanup)
	}
	if stdin != nil {
		cmd.Stdin = stdin
	}

	stdout, cleanup, err := ctx.stdout.open(ctx.dir, true)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("redirecting stdout for %s: %w", n.argv[0], err)
	}
	if cleanup != nil {
		cleanups = append(cleanups, cleanup)
	}
	if stdout != nil {
		cmd.Stdout = stdout
	}

	stderr, cleanup, err := ctx.stderr.open(ctx.dir, true)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("redirecting stderr for %s: %w", n.argv[0], err)
	}
	if cleanup != nil {
		cleanups = append(cleanups, cleanup)
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}

	if err := cmd.Start(); err != nil {
		closeAll()
		return nil, fmt.Errorf("starting %s: %w", n.argv[0], err)
	}
	closeAll()

	if ctx.log != nil {
		ctx.log.CommandStarted(n.argv, ctx.dir, cmd.Process.Pid)
	}
	return &cmdHandle{argv: n.argv, cmd: cmd, log: ctx.log}, nil
}

func (n *pipeNode) exec(ctx *ioContext) (handleNode, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating pipe: %w", err)
	}
	readEnd, writeEnd := newStreamRef(pr), newStreamRef(pw)

	leftCtx := *ctx
	leftCtx.stdout = refBinding(writeEnd)
	left, err := n.left.exec(&leftCtx)
	if err != nil {
		writeEnd.release()
		readEnd.release()
		return nil, err
	}

	rightCtx := *ctx
	rightCtx.stdin = refBinding(readEnd)
	right, err := n.right.exec(&rightCtx)

	// Hand the ends off: children and pending stages hold their own
	// references now. Releasing before the failure wait below means a
	// blocked left side sees EPIPE instead of hanging.
	writeEnd.release()
	readEnd.release()

	if err != nil {
		left.wait()
		return nil, err
	}
	return &pipeHandle{left: left, right: right}, nil
}

func (n *thenNode) exec(ctx *ioContext) (handleNode, error) {
	left, err := n.left.exec(ctx)
	if err != nil {
		return nil, err
	}
	// The right side launches from wait once the left has exited, so the
	// context has to survive past this walk.
	return &thenHandle{left: left, right: n.right, ctx: ctx.retained()}, nil
}

func (n *uncheckedNode) exec(ctx *ioContext) (handleNode, error) {
	inner, err := n.inner.exec(ctx)
	if err != nil {
		return nil, err
	}
	return &uncheckedHandle{inner: inner}, nil
}

func (n *ioNode) exec(ctx *ioContext) (handleNode, error) {
	sub := *ctx
	switch n.mode {
	case modeNull:
		n.bind(&sub, nullBinding())
	case modePath:
		n.bind(&sub, pathBinding(n.path))
	case modeFile:
		n.bind(&sub, fileBinding(n.file))
	case modeCapture:
		ref, err := ctx.caps.writer(n.stream == streamStderr)
		if err != nil {
			return nil, fmt.Errorf("creating capture pipe: %w", err)
		}
		n.bind(&sub, refBinding(ref))
	case modeSwap:
		if n.stream == streamStdout {
			sub.stdout = ctx.stderr
		} else {
			sub.stderr = ctx.stdout
		}
	case modeInput:
		pr, pw, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("creating input pipe: %w", err)
		}
		readEnd := newStreamRef(pr)
		writer := &inputWriter{done: make(chan struct{})}
		go writer.run(pw, n.data)

		sub.stdin = refBinding(readEnd)
		inner, err := n.inner.exec(&sub)
		readEnd.release()
		if err != nil {
			return nil, err
		}
		return &inputHandle{inner: inner, writer: writer}, nil
	}
	return n.inner.exec(&sub)
}

func (n *ioNode) bind(ctx *ioContext, b ioBinding) {
	switch n.stream {
	case streamStdin:
		ctx.stdin = b
	case streamStdout:
		ctx.stdout = b
	case streamStderr:
		ctx.stderr = b
	}
}

func (n *envNode) exec(ctx *ioContext) (handleNode, error) {
	sub := *ctx
	sub.env = copyEnv(ctx.env)
	sub.env[n.name] = n.value
	return n.inner.exec(&sub)
}

func (n *fullEnvNode) exec(ctx *ioContext) (handleNode, error) {
	sub := *ctx
	sub.env = copyEnv(n.env)
	return n.inner.exec(&sub)
}

func (n *dirNode) exec(ctx *ioContext) (handleNode, error) {
	sub := *ctx
	sub.dir = n.dir
	return n.inner.exec(&sub)
}

func (n *logNode) exec(ctx *ioContext) (handleNode, error) {
	sub := *ctx
	sub.log = n.log
	return n.inner.exec(&sub)
}
