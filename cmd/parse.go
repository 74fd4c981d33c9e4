package cmd

import (
	"errors"
	"fmt"

	"github.com/anmitsu/go-shlex"

	"github.com/josephlewis42/conduit/core/expr"
)

// ParseLine compiles a shell-like pipeline description into an expression.
// Commands are separated by "|"; whitespace separated "< path", "> path"
// and "2> path" redirections apply to the whole pipeline.
func ParseLine(line string) (expr.Expression, error) {
	tokens, err := shlex.Split(line, true)
	if err != nil {
		return expr.Expression{}, fmt.Errorf("tokenizing line: %w", err)
	}
	if len(tokens) == 0 {
		return expr.Expression{}, errors.New("empty command line")
	}

	var (
		stages    [][]string
		current   []string
		redirects = map[string]string{}
	)

	endStage := func() error {
		if len(current) == 0 {
			return errors.New("empty pipeline stage")
		}
		stages = append(stages, current)
		current = nil
		return nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok {
		case "|":
			if err := endStage(); err != nil {
				return expr.Expression{}, err
			}
		case "<", ">", "2>":
			if i+1 >= len(tokens) {
				return expr.Expression{}, fmt.Errorf("missing path after %q", tok)
			}
			if _, ok := redirects[tok]; ok {
				return expr.Expression{}, fmt.Errorf("duplicate %q redirection", tok)
			}
			i++
			redirects[tok] = tokens[i]
		default:
			current = append(current, tok)
		}
	}
	if err := endStage(); err != nil {
		return expr.Expression{}, err
	}

	e := expr.Cmd(stages[0][0], stages[0][1:]...)
	for _, stage := range stages[1:] {
		e = e.Pipe(expr.Cmd(stage[0], stage[1:]...))
	}

	if path, ok := redirects["<"]; ok {
		e = e.Stdin(path)
	}
	if path, ok := redirects[">"]; ok {
		e = e.Stdout(path)
	}
	if path, ok := redirects["2>"]; ok {
		e = e.Stderr(path)
	}
	return e, nil
}
