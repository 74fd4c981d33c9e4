package expr

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/josephlewis42/conduit/core/logger"
)

// Output is the collected result of running an expression.
type Output struct {
	// Status is the exit code the expression resolved to: zero on success,
	// and possibly non-zero without an accompanying error when the failing
	// part was marked Unchecked. A child killed by a signal reports -1.
	Status int
	// Stdout holds the bytes collected by StdoutCapture, empty otherwise.
	Stdout []byte
	// Stderr holds the bytes collected by StderrCapture, empty otherwise.
	Stderr []byte
}

type handleNode interface {
	// wait blocks until every process at or below this node has exited and
	// every forwarding goroutine is joined, then reports the resolution.
	wait() (exprStatus, error)
}

// Handle is a running expression. Pair every successful Start with exactly
// one Wait: an unwaited handle leaves its children unreaped until the
// parent process exits.
type Handle struct {
	root handleNode
	caps *captureSet

	mu     sync.Mutex
	waited bool
}

// Start spawns every command the expression is currently due to run and
// returns without waiting for any of them. Stages sequenced by Then launch
// later, during Wait, once their predecessors have exited.
func (e Expression) Start() (*Handle, error) {
	if e.node == nil {
		return nil, errors.New("empty expression")
	}

	ctx := rootContext()
	root, err := e.node.exec(ctx)
	if err != nil {
		ctx.caps.releaseBase()
		ctx.caps.join()
		return nil, err
	}
	return &Handle{root: root, caps: ctx.caps}, nil
}

// Wait blocks until the whole expression has finished, joins its
// forwarding goroutines, and resolves the exit statuses into an Output.
// A non-zero status outside Unchecked comes back as a *StatusError that
// carries the same Output.
func (h *Handle) Wait() (*Output, error) {
	h.mu.Lock()
	if h.waited {
		h.mu.Unlock()
		return nil, ErrAlreadyWaited
	}
	h.waited = true
	h.mu.Unlock()

	status, err := h.root.wait()
	h.caps.releaseBase()
	joinErr := h.caps.join()
	if err != nil {
		return nil, err
	}
	if joinErr != nil {
		return nil, fmt.Errorf("collecting captured output: %w", joinErr)
	}

	out := &Output{
		Status: status.code,
		Stdout: h.caps.stdoutBytes(),
		Stderr: h.caps.stderrBytes(),
	}
	if status.checkedError() {
		return nil, &StatusError{Output: out}
	}
	return out, nil
}

// Run starts the expression and waits for it to finish.
func (e Expression) Run() (*Output, error) {
	handle, err := e.Start()
	if err != nil {
		return nil, err
	}
	return handle.Wait()
}

// Read runs the expression with stdout captured and returns the output as
// text with a single trailing newline removed, the way $(...) does in a
// shell. Output that is not valid UTF-8 is rejected with ErrInvalidUTF8.
func (e Expression) Read() (string, error) {
	out, err := e.StdoutCapture().Run()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out.Stdout) {
		return "", ErrInvalidUTF8
	}

	text := string(out.Stdout)
	switch {
	case strings.HasSuffix(text, "\r\n"):
		text = text[:len(text)-2]
	case strings.HasSuffix(text, "\n"):
		text = text[:len(text)-1]
	}
	return text, nil
}

type cmdHandle struct {
	argv []string
	cmd  *exec.Cmd
	log  *logger.SessionLogger
}

func (h *cmdHandle) wait() (exprStatus, error) {
	err := h.cmd.Wait()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return exprStatus{}, fmt.Errorf("waiting on %s: %w", h.argv[0], err)
		}
		code = exitErr.ExitCode()
	}
	if h.log != nil {
		h.log.CommandExited(h.argv, code)
	}
	return exprStatus{code: code, checked: true}, nil
}

type pipeHandle struct {
	left, right handleNode
}

func (h *pipeHandle) wait() (exprStatus, error) {
	// The sides are waited concurrently: either leg may hold Then stages
	// that only make progress while the other leg drains the pipe.
	var rightStatus exprStatus
	var rightErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		rightStatus, rightErr = h.right.wait()
	}()
	leftStatus, leftErr := h.left.wait()
	<-done

	if leftErr != nil {
		return exprStatus{}, leftErr
	}
	if rightErr != nil {
		return exprStatus{}, rightErr
	}
	return combinePipe(leftStatus, rightStatus), nil
}

type thenHandle struct {
	left  handleNode
	right exprNode
	ctx   *ioContext
}

func (h *thenHandle) wait() (exprStatus, error) {
	leftStatus, err := h.left.wait()
	if err != nil {
		h.ctx.release()
		return exprStatus{}, err
	}

	// A non-zero status on the left never stops the right side; the two
	// resolutions are folded together once both have run.
	right, err := h.right.exec(h.ctx)
	h.ctx.release()
	if err != nil {
		return exprStatus{}, err
	}
	rightStatus, err := right.wait()
	if err != nil {
		return exprStatus{}, err
	}
	return combineThen(leftStatus, rightStatus), nil
}

type uncheckedHandle struct {
	inner handleNode
}

func (h *uncheckedHandle) wait() (exprStatus, error) {
	status, err := h.inner.wait()
	if err != nil {
		return exprStatus{}, err
	}
	status.checked = false
	return status, nil
}

type inputHandle struct {
	inner  handleNode
	writer *inputWriter
}

func (h *inputHandle) wait() (exprStatus, error) {
	status, err := h.inner.wait()
	writeErr := h.writer.wait()
	if err != nil {
		return exprStatus{}, err
	}
	if writeErr != nil {
		return exprStatus{}, fmt.Errorf("writing input: %w", writeErr)
	}
	return status, nil
}
