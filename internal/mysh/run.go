package mysh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"mysh/internal/builtin"
	"mysh/internal/completer"
	"mysh/internal/config"
	"mysh/internal/painter"
	"mysh/internal/prompt"
)

// LineReader supplies input lines one at a time. io.EOF ends the session.
type LineReader interface {
	Readline() (string, error)
}

// scriptReader reads lines from a script file or a non-terminal stdin.
type scriptReader struct {
	scanner *bufio.Scanner
}

func newScriptReader(r io.Reader) *scriptReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &scriptReader{scanner: scanner}
}

func (s *scriptReader) Readline() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Run starts mysh. With a script path the script is executed line by line.
// Without one, an interactive session is started when standard input is a
// terminal; otherwise standard input is read as a script.
func Run(cfg *config.Config, scriptPath string) error {

	shell := New(WithMaxTokens(cfg.Shell.MaxTokens))

	if scriptPath != "" {
		script, err := os.Open(scriptPath)
		if err != nil {
			return fmt.Errorf("mysh: %w", err)
		}
		defer script.Close()
		shell.Loop(newScriptReader(script), InitialState())
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		shell.Loop(newScriptReader(os.Stdin), InitialState())
		return nil
	}

	return shell.interactive(cfg)

}

// Loop feeds every line of reader to Execute until input ends or exit is
// run, and returns the final state.
func (sh *Shell) Loop(reader LineReader, state State) State {

	for state.Running {

		line, err := reader.Readline()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				sh.reportErrors(fmt.Errorf("mysh: read: %w", err))
			}
			break
		}

		state = sh.Execute(line, state)

	}

	return state

}

// interactive runs a terminal session with line editing, history, tab
// completion and a prompt that reflects the last command's status.
func (sh *Shell) interactive(cfg *config.Config) error {

	complete := completer.NewCompleter(builtin.Names()...)

	terminal, err := readline.NewEx(&readline.Config{
		HistoryFile:     cfg.Terminal.HistoryFile,
		HistoryLimit:    cfg.Terminal.HistoryLimit,
		InterruptPrompt: cfg.Terminal.InterruptPrompt,
		EOFPrompt:       "\n" + cfg.Terminal.EOFPrompt,
		AutoComplete:    complete,
	})
	if err != nil {
		return fmt.Errorf("mysh: boot: failed to create new terminal instance: %v", err)
	}
	defer terminal.Close()

	// Ctrl-C is delivered to the foreground child by the terminal; the
	// interpreter itself must survive it.
	sigCh := make(chan os.Signal, 1)
	stopCh := make(chan struct{})
	signal.Notify(sigCh, os.Interrupt)
	go drainSignals(sigCh, stopCh)
	defer func() {
		signal.Stop(sigCh)
		close(stopCh)
	}()

	paint := painter.NewPainter(cfg.Prompt)

	if cfg.Shell.Banner != "" {
		fmt.Fprintln(sh.stdout, cfg.Shell.Banner)
	}

	state := InitialState()
	for state.Running {

		terminal.SetPrompt(prompt.Update(paint, cfg.Prompt.Text, state.Succeeded))
		complete.Update(externalCommands...)

		line, err := terminal.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			} else if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("mysh: read: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		state = sh.Execute(line, state)

	}

	if cfg.Shell.Farewell != "" {
		fmt.Fprintln(sh.stdout, cfg.Shell.Farewell)
	}

	return nil

}

// externalCommands get file name completion in interactive sessions.
var externalCommands = []string{"cat", "cp", "grep", "head", "less", "ls", "mv", "rm", "sort", "tail", "wc"}

func drainSignals(sigCh <-chan os.Signal, stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case <-sigCh:
		}
	}
}
