package expr

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
)

// streamRef is an engine-created descriptor shared by every part of an
// evaluation that still needs it: children borrow it while they spawn,
// pending Then stages retain it until their right side launches. The
// descriptor closes when the last holder releases it.
type streamRef struct {
	file *os.File
	refs int32
}

func newStreamRef(f *os.File) *streamRef {
	return &streamRef{file: f, refs: 1}
}

func (r *streamRef) retain() *streamRef {
	atomic.AddInt32(&r.refs, 1)
	return r
}

func (r *streamRef) release() {
	if atomic.AddInt32(&r.refs, -1) == 0 {
		r.file.Close()
	}
}

// Stream binding kinds in effect during a tree walk.
const (
	ioNull = iota // connect the null device
	ioFile        // borrowed from the caller, never closed by the engine
	ioPath        // opened fresh for every spawn
	ioRef         // engine owned pipe end
)

// ioBinding is the destination one of a child's standard streams is bound
// to at a given point in the tree walk.
type ioBinding struct {
	kind int
	path string
	file *os.File
	ref  *streamRef
}

func nullBinding() ioBinding {
	return ioBinding{kind: ioNull}
}

func fileBinding(f *os.File) ioBinding {
	return ioBinding{kind: ioFile, file: f}
}

func pathBinding(p string) ioBinding {
	return ioBinding{kind: ioPath, path: p}
}

func refBinding(r *streamRef) ioBinding {
	return ioBinding{kind: ioRef, ref: r}
}

// open resolves the binding to a file for a single spawn. Path bindings
// open here, relative to dir, and the returned cleanup closes the parent's
// copy once the child owns its own. A nil file means the null device.
func (b ioBinding) open(dir string, write bool) (*os.File, func(), error) {
	switch b.kind {
	case ioFile:
		return b.file, nil, nil
	case ioRef:
		return b.ref.file, nil, nil
	case ioPath:
		name := b.path
		if dir != "" && !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		var f *os.File
		var err error
		if write {
			f, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		} else {
			f, err = os.Open(name)
		}
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	return nil, nil, nil
}

// captureSet lazily creates at most one capture pipe per stream for a
// whole evaluation. Every capture point for the same stream shares the
// pipe, so the final Output sees a single interleaved byte stream no
// matter how many children write to it.
type captureSet struct {
	mu     sync.Mutex
	stdout *streamCapture
	stderr *streamCapture
}

type streamCapture struct {
	ref  *streamRef // write end; the base reference is dropped by releaseBase
	buf  bytes.Buffer
	err  error
	done chan struct{}
}

// writer returns the shared write end for the selected stream, creating
// the pipe and its draining goroutine on first use.
func (cs *captureSet) writer(stderr bool) (*streamRef, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	slot := &cs.stdout
	if stderr {
		slot = &cs.stderr
	}
	if *slot == nil {
		pr, pw, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		sc := &streamCapture{ref: newStreamRef(pw), done: make(chan struct{})}
		go func() {
			_, err := io.Copy(&sc.buf, pr)
			pr.Close()
			sc.err = err
			close(sc.done)
		}()
		*slot = sc
	}
	return (*slot).ref, nil
}

// releaseBase drops the engine's own references to the capture write ends
// so the drains reach EOF once every child has exited. Nothing may call
// writer after this.
func (cs *captureSet) releaseBase() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, sc := range []*streamCapture{cs.stdout, cs.stderr} {
		if sc != nil && sc.ref != nil {
			sc.ref.release()
			sc.ref = nil
		}
	}
}

// join waits for the capture drains to finish and reports the first read
// error, if any.
func (cs *captureSet) join() error {
	cs.mu.Lock()
	stdout, stderr := cs.stdout, cs.stderr
	cs.mu.Unlock()

	var err error
	if stdout != nil {
		<-stdout.done
		err = stdout.err
	}
	if stderr != nil {
		<-stderr.done
		if err == nil {
			err = stderr.err
		}
	}
	return err
}

func (cs *captureSet) stdoutBytes() []byte {
	if cs.stdout == nil {
		return nil
	}
	return cs.stdout.buf.Bytes()
}

func (cs *captureSet) stderrBytes() []byte {
	if cs.stderr == nil {
		return nil
	}
	return cs.stderr.buf.Bytes()
}

// inputWriter feeds literal bytes into a child's stdin and swallows the
// broken pipe error a child causes by exiting without reading everything.
type inputWriter struct {
	err  error
	done chan struct{}
}

func (w *inputWriter) run(pw *os.File, data []byte) {
	defer close(w.done)

	_, err := pw.Write(data)
	if cerr := pw.Close(); err == nil {
		err = cerr
	}
	if err != nil && !isBrokenPipe(err) {
		w.err = err
	}
}

func (w *inputWriter) wait() error {
	<-w.done
	return w.err
}

// isBrokenPipe reports whether err came from writing into a pipe whose
// readers have all gone away.
func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
