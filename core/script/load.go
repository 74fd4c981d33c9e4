package script

import (
	"fmt"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load reads and parses a script file from fs. Unknown fields are errors.
func Load(fs afero.Fs, path string) (*Script, error) {
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	var out Script
	if err := yaml.UnmarshalStrict(contents, &out); err != nil {
		return nil, fmt.Errorf("parsing script %s: %w", path, err)
	}
	return &out, nil
}
