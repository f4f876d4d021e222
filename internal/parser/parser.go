// Package parser turns a raw command line into the pieces the mysh engine
// executes. It tokenizes the line (honoring quotes), splits the tokens into
// pipeline stages on "|" and extracts the "<" and ">" redirections of each
// stage. The parser never touches the filesystem: redirection targets are
// recorded, not opened.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anmitsu/go-shlex"
)

// DefaultMaxTokens is the number of tokens a single line may hold when the
// configuration does not say otherwise.
const DefaultMaxTokens = 64

const (
	pipeOperator   = "|"
	inputOperator  = "<"
	outputOperator = ">"
)

var (
	ErrUnterminatedQuote        = errors.New("unterminated quote")
	ErrTooManyTokens            = errors.New("too many tokens")
	ErrEmptyPipelineStage       = errors.New("empty pipeline stage")
	ErrRedirectionTargetMissing = errors.New("redirection target missing")
	ErrEmptyCommand             = errors.New("empty command")
)

// Stream identifies which standard stream a redirection rebinds.
type Stream int

const (
	Stdin Stream = iota
	Stdout
)

func (s Stream) String() string {
	if s == Stdin {
		return "stdin"
	}
	return "stdout"
}

// Redirection rebinds one standard stream of a single command to a file.
type Redirection struct {
	Stream Stream // stream being replaced
	Target string // path of the file opened in its place
}

// Command is a single pipeline stage: the program (or builtin) name with its
// arguments, and the redirections declared by this stage only.
type Command struct {
	Args         []string
	Redirections []Redirection
}

// Name returns the program or builtin name of the command.
func (c Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// Target reports the file the given stream is redirected to, if any.
func (c Command) Target(stream Stream) (string, bool) {
	for _, r := range c.Redirections {
		if r.Stream == stream {
			return r.Target, true
		}
	}
	return "", false
}

// Tokenize splits line into whitespace separated tokens. A token opened by a
// single or double quote runs to the matching quote, which is dropped. Blank
// lines and lines whose first non-blank character is '#' yield no tokens.
// A line holding more than maxTokens tokens is rejected as a whole.
func Tokenize(line string, maxTokens int) ([]string, error) {

	line = strings.TrimRight(line, "\r\n")

	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}

	tokens, err := shlex.Split(line, true)
	if err != nil {
		return nil, fmt.Errorf("mysh: syntax error: %w", ErrUnterminatedQuote)
	}

	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if len(tokens) > maxTokens {
		return nil, fmt.Errorf("mysh: syntax error: %w: %d given, at most %d allowed", ErrTooManyTokens, len(tokens), maxTokens)
	}

	return tokens, nil

}

// SplitPipeline cuts tokens into stages on every "|". Each stage must hold
// at least one token; redirections are left in place for PlanRedirections.
func SplitPipeline(tokens []string) ([][]string, error) {

	var stages [][]string
	var current []string

	for _, token := range tokens {
		if token != pipeOperator {
			current = append(current, token)
			continue
		}
		if len(current) == 0 {
			return nil, fmt.Errorf("mysh: syntax error near '|': %w", ErrEmptyPipelineStage)
		}
		stages = append(stages, current)
		current = nil
	}

	if len(current) == 0 {
		return nil, fmt.Errorf("mysh: syntax error near '|': %w", ErrEmptyPipelineStage)
	}

	return append(stages, current), nil

}

// PlanRedirections scans one stage left to right, removing every "<" and ">"
// together with the file name that follows it. When a stream is redirected
// more than once the last target wins. The returned Command holds the plain
// argument list and at most one redirection per stream.
func PlanRedirections(stage []string) (Command, error) {

	var command Command
	var input, output *Redirection

	for i := 0; i < len(stage); i++ {

		token := stage[i]
		if !isRedirection(token) {
			command.Args = append(command.Args, token)
			continue
		}

		if i+1 >= len(stage) || isRedirection(stage[i+1]) {
			return Command{}, fmt.Errorf("mysh: syntax error near '%s': %w", token, ErrRedirectionTargetMissing)
		}

		i++
		if token == inputOperator {
			input = &Redirection{Stream: Stdin, Target: stage[i]}
		} else {
			output = &Redirection{Stream: Stdout, Target: stage[i]}
		}

	}

	if len(command.Args) == 0 {
		return Command{}, fmt.Errorf("mysh: syntax error: %w", ErrEmptyCommand)
	}

	if input != nil {
		command.Redirections = append(command.Redirections, *input)
	}
	if output != nil {
		command.Redirections = append(command.Redirections, *output)
	}

	return command, nil

}

// Parse splits tokens into a pipeline and plans the redirections of every
// stage. Any syntax error aborts the whole line.
func Parse(tokens []string) ([]Command, error) {

	stages, err := SplitPipeline(tokens)
	if err != nil {
		return nil, err
	}

	pipeline := make([]Command, 0, len(stages))
	for _, stage := range stages {
		command, err := PlanRedirections(stage)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, command)
	}

	return pipeline, nil

}

func isRedirection(token string) bool {
	return token == inputOperator || token == outputOperator
}
