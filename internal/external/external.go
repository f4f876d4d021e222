// Package external spawns and supervises the OS processes of a mysh
// pipeline. Every stage runs in its own process; adjacent stages are joined
// by anonymous pipes and each stage may rebind its standard input or output
// to a file.
package external

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"mysh/internal/parser"
)

var (
	// ErrForkFailed reports that the OS refused to create a process. The
	// whole pipeline attempt is abandoned.
	ErrForkFailed = errors.New("fork failed")
	// ErrPipeCreationFailed reports that a pipe between two stages could not
	// be created. No stage is started.
	ErrPipeCreationFailed = errors.New("pipe creation failed")
)

// Resolver finds the executable behind a command name.
type Resolver interface {
	Resolve(name string) (string, error)
}

// Runner starts pipelines wired to the given standard streams. Streams that
// are *os.File values are handed to the children directly.
type Runner struct {
	Resolver Resolver
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// StageResult describes what happened to one stage of a pipeline.
type StageResult struct {
	Name     string // program name as typed
	Pid      int    // process id, 0 if the stage never started
	Started  bool   // whether a process was created
	ExitCode int    // exit status; -1 if not started or killed by a signal
}

// Result collects the outcome of every stage of a pipeline, in order.
type Result struct {
	Stages []StageResult
}

// Success reports the pipeline status, which is the status of its last
// stage. Failures of earlier stages are not reflected.
func (r Result) Success() bool {
	if len(r.Stages) == 0 {
		return false
	}
	last := r.Stages[len(r.Stages)-1]
	return last.Started && last.ExitCode == 0
}

// stage is a prepared pipeline stage together with the files the parent
// opened for it.
type stage struct {
	command parser.Command
	cmd     *exec.Cmd
	files   []*os.File
}

func (s *stage) closeFiles() {
	for _, file := range s.files {
		_ = file.Close()
	}
	s.files = nil
}

// Run executes pipeline and waits for every started stage to terminate.
// Problems confined to one stage (unknown command, unreadable redirection
// target, exec failure) are written to Stderr and fail that stage only. Pipe
// or process creation failures abort the attempt and are returned.
func (r *Runner) Run(pipeline []parser.Command) (Result, error) {

	if len(pipeline) == 0 {
		return Result{}, fmt.Errorf("mysh: %w", parser.ErrEmptyCommand)
	}

	pipes, err := newPipeSet(len(pipeline) - 1)
	if err != nil {
		return Result{}, err
	}
	defer pipes.Close()

	// Every stage and the parent itself write diagnostics to the same
	// stream.
	run := *r
	run.Stderr = lockStream(r.Stderr)

	result := Result{Stages: make([]StageResult, len(pipeline))}
	stages := make([]*stage, len(pipeline))

	for i, command := range pipeline {

		result.Stages[i] = StageResult{Name: command.Name(), ExitCode: -1}

		s, err := run.prepare(command, pipes.reader(i-1), pipes.writer(i))
		if err != nil {
			run.report(err)
			continue
		}

		if err := s.cmd.Start(); err != nil {
			s.closeFiles()
			if !isExecError(err) {
				pipes.Close()
				run.wait(stages, &result)
				return result, fmt.Errorf("mysh: %s: %w: %v", command.Name(), ErrForkFailed, err)
			}
			run.report(fmt.Errorf("mysh: %s: %w", command.Name(), err))
			continue
		}
		s.closeFiles()

		stages[i] = s
		result.Stages[i].Started = true
		result.Stages[i].Pid = s.cmd.Process.Pid

	}

	// Children hold their own copies of the pipe ends; ours must go before
	// waiting or readers never see end of stream.
	pipes.Close()

	run.wait(stages, &result)

	return result, nil

}

// prepare resolves the stage's program and binds its streams: the pipe
// ends by default, overridden by the stage's own redirections.
func (r *Runner) prepare(command parser.Command, stdin io.Reader, stdout io.Writer) (*stage, error) {

	path, err := r.Resolver.Resolve(command.Name())
	if err != nil {
		return nil, fmt.Errorf("mysh: %s: %w", command.Name(), err)
	}

	s := &stage{command: command}

	if stdin == nil {
		stdin = r.Stdin
	}
	if stdout == nil {
		stdout = r.Stdout
	}

	if target, ok := command.Target(parser.Stdin); ok {
		file, err := OpenInput(target)
		if err != nil {
			return nil, err
		}
		s.files = append(s.files, file)
		stdin = file
	}

	if target, ok := command.Target(parser.Stdout); ok {
		file, err := OpenOutput(target)
		if err != nil {
			s.closeFiles()
			return nil, err
		}
		s.files = append(s.files, file)
		stdout = file
	}

	s.cmd = &exec.Cmd{
		Path:   path,
		Args:   command.Args,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: r.Stderr,
	}

	return s, nil

}

// wait reaps every started stage, in order, recording exit codes.
func (r *Runner) wait(stages []*stage, result *Result) {
	for i, s := range stages {
		if s == nil {
			continue
		}
		result.Stages[i].ExitCode = exitCode(s.cmd.Wait(), s.cmd)
	}
}

func (r *Runner) report(err error) {
	if r.Stderr != nil {
		fmt.Fprintln(r.Stderr, err)
	}
}

// OpenInput opens a "<" target read-only.
func OpenInput(target string) (*os.File, error) {
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("mysh: %s: cannot open for reading: %w", target, err)
	}
	return file, nil
}

// OpenOutput opens a ">" target for writing, creating it or truncating it.
func OpenOutput(target string) (*os.File, error) {
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("mysh: %s: cannot open for writing: %w", target, err)
	}
	return file, nil
}

// isExecError tells exec failures, which only fail their own stage, apart
// from failures to create the process at all.
func isExecError(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ENOEXEC) ||
		errors.Is(err, syscall.ENOTDIR) ||
		errors.Is(err, syscall.EISDIR) ||
		errors.Is(err, syscall.E2BIG)
}

func exitCode(err error, cmd *exec.Cmd) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() != 0 {
		return cmd.ProcessState.ExitCode()
	}
	return 1
}
