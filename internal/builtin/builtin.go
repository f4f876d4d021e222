// Package builtin implements the commands mysh runs inside its own process:
// cd, pwd, which and exit. Builtins are never forked; they act on the
// interpreter's working directory and report through the writer they are
// given.
package builtin

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrUsage reports a builtin called with the wrong number of arguments.
	ErrUsage = errors.New("wrong number of arguments")
	// ErrInPipeline reports a builtin used as a stage of a multi-stage
	// pipeline, which mysh does not support.
	ErrInPipeline = errors.New("builtin cannot be used in a pipeline")
	// ErrUnknown is returned by Execute for a name that is not a builtin.
	ErrUnknown = errors.New("not a builtin")
)

// Resolver finds the executable behind a command name.
type Resolver interface {
	Resolve(name string) (string, error)
}

var names = []string{"cd", "pwd", "which", "exit"}

var builtins = map[string]struct{}{
	"cd":    {},
	"pwd":   {},
	"which": {},
	"exit":  {},
}

// Names returns the builtin names.
func Names() []string {
	return append([]string(nil), names...)
}

// IsBuiltin reports whether name is one of the mysh builtins.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Execute runs the builtin named by command[0] and writes its output to
// writer. The returned quit flag is set only by exit; the caller decides
// what stopping means. A non-nil error marks the command as failed.
func Execute(command []string, writer io.Writer, resolver Resolver) (quit bool, err error) {

	if len(command) == 0 {
		return false, ErrUnknown
	}

	switch command[0] {
	case "cd":
		return false, changeDirectory(command)
	case "pwd":
		return false, printWorkingDirectory(command, writer)
	case "which":
		return false, which(command, writer, resolver)
	case "exit":
		return true, exit(command, writer)
	}

	return false, fmt.Errorf("mysh: %s: %w", command[0], ErrUnknown)

}

// changeDirectory moves the interpreter into the single directory argument.
func changeDirectory(command []string) error {

	if len(command) != 2 {
		return fmt.Errorf("mysh: cd: %w: usage: cd <dir>", ErrUsage)
	}

	dir := command[1]
	if err := os.Chdir(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("mysh: cd: %s: no such file or directory: %w", dir, err)
		}
		return fmt.Errorf("mysh: cd: %w", err)
	}

	return nil

}

// printWorkingDirectory writes the absolute working directory to writer.
func printWorkingDirectory(command []string, writer io.Writer) error {
	if len(command) != 1 {
		return fmt.Errorf("mysh: pwd: %w: usage: pwd", ErrUsage)
	}
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("mysh: pwd: failed to get absolute path name: %w", err)
	}
	if _, err := fmt.Fprintln(writer, dir); err != nil {
		return fmt.Errorf("mysh: pwd: write operation failed: %w", err)
	}
	return nil
}

// which prints where a command would be found. Builtin names are reported
// as such without consulting the resolver.
func which(command []string, writer io.Writer, resolver Resolver) error {

	if len(command) != 2 {
		return fmt.Errorf("mysh: which: %w: usage: which <name>", ErrUsage)
	}

	name := command[1]

	var line string
	if IsBuiltin(name) {
		line = name + ": shell built-in command"
	} else {
		path, err := resolver.Resolve(name)
		if err != nil {
			return fmt.Errorf("mysh: which: %s: %w", name, err)
		}
		line = path
	}

	if _, err := fmt.Fprintln(writer, line); err != nil {
		return fmt.Errorf("mysh: which: write operation failed: %w", err)
	}

	return nil

}

// exit echoes its arguments, if any, before the interpreter stops.
func exit(command []string, writer io.Writer) error {
	if len(command) == 1 {
		return nil
	}
	if _, err := fmt.Fprintln(writer, strings.Join(command[1:], " ")); err != nil {
		return fmt.Errorf("mysh: exit: write operation failed: %w", err)
	}
	return nil
}
