package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

// newTestProc creates a Proc wired to in-memory stand-ins.
func newTestProc(args []string, stdin string) (p *Proc, stdout, stderr *bytes.Buffer) {
	stdout = &bytes.Buffer{}
	stderr = &bytes.Buffer{}
	p = &Proc{
		Args:   args,
		Stdin:  strings.NewReader(stdin),
		Stdout: stdout,
		Stderr: stderr,
		FS:     afero.NewMemMapFs(),
		Getenv: func(string) string { return "" },
		Getwd:  func() (string, error) { return "/", nil },
	}
	return
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"cat", "echo", "printenv", "pwd", "spew", "status", "xtoy"}, Names())

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			applet, ok := Lookup(name)
			assert.True(t, ok)
			assert.NotNil(t, applet)
		})
	}
}

func TestRun(t *testing.T) {
	p, stdout, _ := newTestProc([]string{"echo", "hi"}, "")

	assert.Equal(t, 0, Run("echo", p))
	assert.Equal(t, "hi\n", stdout.String())
}

func TestRunUnknownApplet(t *testing.T) {
	p, _, stderr := newTestProc([]string{"bogus"}, "")

	assert.Equal(t, 127, Run("bogus", p))
	assert.Contains(t, stderr.String(), "applet not found")
}

type goldenTestSuite map[string]goldenTest

type goldenTest struct {
	Args  []string
	Stdin string
	Files map[string]string
}

func (gts goldenTestSuite) Run(t *testing.T, applet AppletFunc) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for tn, tc := range gts {
		t.Run(tn, func(t *testing.T) {
			var combined bytes.Buffer
			p := &Proc{
				Args:   tc.Args,
				Stdin:  strings.NewReader(tc.Stdin),
				Stdout: &combined,
				Stderr: &combined,
				FS:     afero.NewMemMapFs(),
				Getenv: func(string) string { return "" },
				Getwd:  func() (string, error) { return "/", nil },
			}
			for path, contents := range tc.Files {
				if err := afero.WriteFile(p.FS, path, []byte(contents), 0644); err != nil {
					t.Fatal(err)
				}
			}

			if status := applet(p); status != 0 {
				t.Fatalf("exited %d: %s", status, combined.String())
			}

			g.Assert(t, tn, combined.Bytes())
		})
	}
}
