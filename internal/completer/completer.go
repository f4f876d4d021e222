// Package completer provides tab completion for interactive mysh sessions.
// Suggestions are rebuilt from the current directory before every prompt:
// cd completes directories, which completes builtin names and every other
// command completes file names.
package completer

import (
	"os"

	"github.com/chzyer/readline"
)

// Completer adapts the directory contents to the readline.AutoCompleter
// interface.
type Completer struct {
	builtins          []string
	readlineCompleter *readline.PrefixCompleter
}

// NewCompleter returns a Completer that knows the given builtin names.
func NewCompleter(builtins ...string) *Completer {
	return &Completer{
		builtins:          builtins,
		readlineCompleter: readline.NewPrefixCompleter(),
	}
}

// Update rebuilds the completion tree from the current working directory.
// Names listed in commands get file name completion.
func (c *Completer) Update(commands ...string) {

	entries, err := os.ReadDir(".")
	if err != nil {
		return
	}

	var onlyDirs []readline.PrefixCompleterInterface
	var fileNames []readline.PrefixCompleterInterface

	for _, entry := range entries {
		if entry.IsDir() {
			fileNames = append(fileNames, readline.PcItem(entry.Name()+"/"))
			onlyDirs = append(onlyDirs, readline.PcItem(entry.Name()+"/"))
		} else {
			fileNames = append(fileNames, readline.PcItem(entry.Name()))
		}
	}

	var builtinNames []readline.PrefixCompleterInterface
	for _, name := range c.builtins {
		builtinNames = append(builtinNames, readline.PcItem(name))
	}

	var items []readline.PrefixCompleterInterface
	for _, name := range c.builtins {
		switch name {
		case "cd":
			items = append(items, readline.PcItem(name, onlyDirs...))
		case "which":
			items = append(items, readline.PcItem(name, builtinNames...))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	for _, command := range commands {
		items = append(items, readline.PcItem(command, fileNames...))
	}

	c.readlineCompleter = readline.NewPrefixCompleter(items...)

}

// Do delegates the completion logic to the underlying PrefixCompleter.
// It satisfies the readline.AutoCompleter interface.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	return c.readlineCompleter.Do(line, pos)
}
