package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleScript = `
env:
  LC_ALL: C
dir: build
stdin: input.txt
stdout: out.txt
pipeline:
  - argv: [cat, data.csv]
    env:
      TZ: UTC
    unchecked: true
  - argv: [sort]
`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "job.yaml", []byte(exampleScript), 0600))

	script, err := Load(fs, "job.yaml")
	require.NoError(t, err)
	require.NoError(t, script.Validate())

	assert.Equal(t, "build", script.Dir)
	assert.Equal(t, map[string]string{"LC_ALL": "C"}, script.Env)
	require.Len(t, script.Pipeline, 2)
	assert.Equal(t, []string{"cat", "data.csv"}, script.Pipeline[0].Argv)
	assert.True(t, script.Pipeline[0].Unchecked)
	assert.Equal(t, []string{"sort"}, script.Pipeline[1].Argv)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "nope.yaml")
	assert.Error(t, err)
}

func TestLoadUnknownField(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "job.yaml", []byte("pipelines: []\n"), 0600))

	_, err := Load(fs, "job.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		script  Script
		wantErr bool
	}{
		{
			name:    "empty pipeline",
			script:  Script{},
			wantErr: true,
		},
		{
			name:    "stage without argv",
			script:  Script{Pipeline: []Stage{{}}},
			wantErr: true,
		},
		{
			name:    "minimal",
			script:  Script{Pipeline: []Stage{{Argv: []string{"true"}}}},
			wantErr: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.script.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	script := Script{
		Env:   map[string]string{"LC_ALL": "C"},
		Dir:   "build",
		Stdin: "input.txt",
		Pipeline: []Stage{
			{Argv: []string{"cat", "data.csv"}, Env: map[string]string{"TZ": "UTC"}, Unchecked: true},
			{Argv: []string{"sort"}},
		},
	}

	want := `stdin_path("input.txt", dir("build", env("LC_ALL", "C", ` +
		`pipe(unchecked(env("TZ", "UTC", cmd("cat", "data.csv"))), cmd("sort")))))`
	assert.Equal(t, want, script.Compile().String())
}

func TestCompileRuns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.txt"), []byte("b\na\n"), 0600))

	script := Script{
		Dir:    dir,
		Stdin:  "input.txt",
		Stdout: "sorted.txt",
		Pipeline: []Stage{
			{Argv: []string{"sort"}},
		},
	}
	require.NoError(t, script.Validate())

	_, err := script.Compile().Run()
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "sorted.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(content))
}
