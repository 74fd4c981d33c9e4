package expr

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRefClosesOnLastRelease(t *testing.T) {
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()

	ref := newStreamRef(pw)
	ref.retain()

	ref.release()
	_, err = pw.Write([]byte("still open"))
	require.NoError(t, err)

	ref.release()
	_, err = pw.Write([]byte("closed"))
	require.Error(t, err)
}

func TestIsBrokenPipe(t *testing.T) {
	assert.True(t, isBrokenPipe(syscall.EPIPE))
	assert.True(t, isBrokenPipe(&os.PathError{Op: "write", Path: "|1", Err: syscall.EPIPE}))
	assert.False(t, isBrokenPipe(errors.New("some other failure")))
	assert.False(t, isBrokenPipe(nil))
}

func TestInputWriterSwallowsBrokenPipe(t *testing.T) {
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	require.NoError(t, pr.Close())

	w := &inputWriter{done: make(chan struct{})}
	go w.run(pw, []byte("nobody is reading this"))

	assert.NoError(t, w.wait())
}

func TestInputWriterDeliversBytes(t *testing.T) {
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()

	w := &inputWriter{done: make(chan struct{})}
	go w.run(pw, []byte("payload"))

	buf := make([]byte, 32)
	n, err := pr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(buf[:n]))
	assert.NoError(t, w.wait())
}

func TestPathBindingOpensRelativeToDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.txt"), []byte("data"), 0644))

	f, cleanup, err := pathBinding("in.txt").open(dir, false)
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	defer cleanup()

	buf := make([]byte, 8)
	n, _ := f.Read(buf)
	assert.Equal(t, "data", string(buf[:n]))
}

func TestPathBindingCreatesForWrite(t *testing.T) {
	dir := t.TempDir()

	f, cleanup, err := pathBinding(filepath.Join(dir, "out.txt")).open("", true)
	require.NoError(t, err)
	_, err = f.Write([]byte("written"))
	require.NoError(t, err)
	cleanup()

	contents, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "written", string(contents))
}

func TestNullBindingResolvesToNoFile(t *testing.T) {
	f, cleanup, err := nullBinding().open("", false)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Nil(t, cleanup)
}
