// Package script loads declarative pipeline files and compiles them into
// runnable expressions.
package script

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/josephlewis42/conduit/core/expr"
)

// Stage is one command in a pipeline.
type Stage struct {
	Argv      []string          `json:"argv" validate:"required,min=1"`
	Env       map[string]string `json:"env"`
	Unchecked bool              `json:"unchecked"`
}

// Script is a declarative description of a pipeline and its redirections.
type Script struct {
	Env      map[string]string `json:"env"`
	Dir      string            `json:"dir"`
	Stdin    string            `json:"stdin"`
	Stdout   string            `json:"stdout"`
	Stderr   string            `json:"stderr"`
	Pipeline []Stage           `json:"pipeline" validate:"required,min=1,dive"`
}

// Validate the script for basic semantic errors.
func (s *Script) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(s)
}

// Compile builds the expression the script describes. Stages are piped
// left to right and env keys apply in sorted order so the result is
// stable across runs.
func (s *Script) Compile() expr.Expression {
	var pipeline expr.Expression
	for i, stage := range s.Pipeline {
		e := expr.Cmd(stage.Argv[0], stage.Argv[1:]...)
		for _, name := range sortedKeys(stage.Env) {
			e = e.Env(name, stage.Env[name])
		}
		if stage.Unchecked {
			e = e.Unchecked()
		}

		if i == 0 {
			pipeline = e
		} else {
			pipeline = pipeline.Pipe(e)
		}
	}

	for _, name := range sortedKeys(s.Env) {
		pipeline = pipeline.Env(name, s.Env[name])
	}
	if s.Dir != "" {
		pipeline = pipeline.Dir(s.Dir)
	}
	if s.Stdin != "" {
		pipeline = pipeline.Stdin(s.Stdin)
	}
	if s.Stdout != "" {
		pipeline = pipeline.Stdout(s.Stdout)
	}
	if s.Stderr != "" {
		pipeline = pipeline.Stderr(s.Stderr)
	}
	return pipeline
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
