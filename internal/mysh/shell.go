// Package mysh is the execution engine of the mysh command interpreter and
// the loop that feeds it. Shell.Execute takes one line through tokenizing,
// then/else gating, wildcard expansion, pipeline and redirection planning,
// and finally runs it either as a builtin or as a pipeline of external
// processes. Run reads lines from a terminal, a script or standard input.
package mysh

import (
	"fmt"
	"io"
	"os"

	"mysh/internal/builtin"
	"mysh/internal/external"
	"mysh/internal/parser"
	"mysh/internal/resolver"
	"mysh/internal/wildcard"
)

// Shell holds what stays fixed for the lifetime of the interpreter: the
// command search path, read once at start, the token limit and the standard
// streams commands inherit.
type Shell struct {
	searchPath resolver.SearchPath
	expander   *wildcard.Expander
	runner     *external.Runner
	maxTokens  int
	stdout     io.Writer
	stderr     io.Writer
}

// Option customizes a Shell built by New.
type Option func(*Shell)

// WithSearchPath replaces the search path taken from PATH.
func WithSearchPath(searchPath resolver.SearchPath) Option {
	return func(sh *Shell) { sh.searchPath = searchPath }
}

// WithMaxTokens sets the largest number of tokens a line may hold.
func WithMaxTokens(n int) Option {
	return func(sh *Shell) { sh.maxTokens = n }
}

// WithStreams sets the standard streams of the interpreter and its children.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(sh *Shell) {
		sh.runner.Stdin = stdin
		sh.stdout = stdout
		sh.stderr = stderr
	}
}

// WithExpander replaces the wildcard expander working on the host
// filesystem.
func WithExpander(expander *wildcard.Expander) Option {
	return func(sh *Shell) { sh.expander = expander }
}

// New builds a Shell on the process's standard streams and PATH.
func New(opts ...Option) *Shell {

	sh := &Shell{
		searchPath: resolver.FromEnv(),
		expander:   wildcard.New(nil),
		runner:     &external.Runner{Stdin: os.Stdin},
		maxTokens:  parser.DefaultMaxTokens,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}

	for _, opt := range opts {
		opt(sh)
	}

	sh.runner.Resolver = sh.searchPath
	sh.runner.Stdout = sh.stdout
	sh.runner.Stderr = sh.stderr

	return sh

}

// Execute runs one input line and returns the state for the next one.
// Wildcards are expanded per stage once the line has been split into
// commands.
// Blank and comment lines, and lines skipped by then/else, leave state
// untouched. Every error is reported on the error stream; none of them
// stops the interpreter, only exit clears Running.
func (sh *Shell) Execute(line string, state State) State {

	tokens, err := parser.Tokenize(line, sh.maxTokens)
	if err != nil {
		sh.reportErrors(err)
		return state.withStatus(false)
	}
	if len(tokens) == 0 {
		return state
	}

	tokens, run := gate(tokens, state)
	if !run {
		return state
	}
	if len(tokens) == 0 {
		sh.reportErrors(fmt.Errorf("mysh: syntax error: %w", parser.ErrEmptyCommand))
		return state.withStatus(false)
	}

	pipeline, err := parser.Parse(tokens)
	if err != nil {
		sh.reportErrors(err)
		return state.withStatus(false)
	}

	pipeline, err = sh.expand(pipeline)
	if err != nil {
		sh.reportErrors(err)
		return state.withStatus(false)
	}

	if len(pipeline) == 1 && builtin.IsBuiltin(pipeline[0].Name()) {
		return sh.runBuiltin(pipeline[0], state)
	}

	for _, command := range pipeline {
		if builtin.IsBuiltin(command.Name()) {
			sh.reportErrors(fmt.Errorf("mysh: %s: %w", command.Name(), builtin.ErrInPipeline))
			return state.withStatus(false)
		}
	}

	result, err := sh.runner.Run(pipeline)
	if err != nil {
		sh.reportErrors(err)
		return state.withStatus(false)
	}

	return state.withStatus(result.Success())

}

// expand replaces the wildcard patterns in the arguments and redirection
// targets of every stage. It runs after parsing so that matched file names
// are never taken for operators.
func (sh *Shell) expand(pipeline []parser.Command) ([]parser.Command, error) {

	expanded := make([]parser.Command, 0, len(pipeline))

	for _, command := range pipeline {

		next := parser.Command{Args: sh.expander.Expand(command.Args)}

		for _, redirection := range command.Redirections {
			target, err := sh.expander.ExpandTarget(redirection.Target)
			if err != nil {
				return nil, fmt.Errorf("mysh: %s: %w", redirection.Target, err)
			}
			redirection.Target = target
			next.Redirections = append(next.Redirections, redirection)
		}

		expanded = append(expanded, next)

	}

	return expanded, nil

}

// runBuiltin executes a single-stage builtin inside the interpreter. A ">"
// target receives the builtin's output; a "<" target must be readable but
// is otherwise unused.
func (sh *Shell) runBuiltin(command parser.Command, state State) State {

	writer := sh.stdout

	if target, ok := command.Target(parser.Stdin); ok {
		file, err := external.OpenInput(target)
		if err != nil {
			sh.reportErrors(err)
			return state.withStatus(false)
		}
		_ = file.Close()
	}

	if target, ok := command.Target(parser.Stdout); ok {
		file, err := external.OpenOutput(target)
		if err != nil {
			sh.reportErrors(err)
			return state.withStatus(false)
		}
		defer file.Close()
		writer = file
	}

	quit, err := builtin.Execute(command.Args, writer, sh.searchPath)
	if err != nil {
		sh.reportErrors(err)
	}

	state = state.withStatus(err == nil)
	if quit {
		state.Running = false
	}

	return state

}

// reportErrors prints the provided error to the error stream if it is
// non-nil.
func (sh *Shell) reportErrors(err error) {
	if err != nil {
		fmt.Fprintln(sh.stderr, err)
	}
}

func (s State) withStatus(succeeded bool) State {
	s.Succeeded = succeeded
	return s
}
