// Package config loads the mysh settings from an optional configuration
// file using Viper. It covers the interpreter limits, the terminal
// behaviour of interactive sessions and the prompt appearance.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// FileName is the base name, without extension, of the configuration file.
const FileName = "mysh"

// Config holds all configurable settings of the shell.
type Config struct {
	Shell    Shell    `mapstructure:"shell"`    // Interpreter settings
	Terminal Terminal `mapstructure:"terminal"` // Terminal-related settings
	Prompt   Prompt   `mapstructure:"prompt"`   // Prompt appearance settings
}

// Shell defines settings of the execution engine and of the session
// greeting.
type Shell struct {
	MaxTokens int    `mapstructure:"max_tokens" validate:"min=1,max=4096"` // Longest accepted line, in tokens
	Banner    string `mapstructure:"banner"`                               // Printed when an interactive session starts
	Farewell  string `mapstructure:"farewell"`                             // Printed when an interactive session ends
}

// Terminal defines settings related to terminal behavior, such as history
// file, history limit, interrupt and exit prompts.
type Terminal struct {
	HistoryFile     string `mapstructure:"history_file"`                     // Path to shell history file
	HistoryLimit    int    `mapstructure:"history_limit" validate:"min=-1"` // Maximum number of history entries
	InterruptPrompt string `mapstructure:"interrupt_prompt"`                 // Text shown on Ctrl-C
	EOFPrompt       string `mapstructure:"exit_message"`                     // Text shown on EOF
}

// Prompt defines settings related to the shell prompt appearance.
type Prompt struct {
	Text           string `mapstructure:"text" validate:"required"` // Prompt text printed after the path
	PathColour     string `mapstructure:"path_colour"`              // Color for the current path
	PathColourBold bool   `mapstructure:"path_colour_bold"`         // Bold style for the path
	FailureColour  string `mapstructure:"failure_colour"`           // Color of the prompt text after a failed command
}

// Load reads a file named "mysh" (any format Viper understands) from the
// given directories, then the current directory and ~/.config/mysh. A
// missing file is not an error: the defaults are used. On any other failure
// the partial Config is returned along with the error.
func Load(dirs ...string) (*Config, error) {

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", FileName))
	}

	cfg := new(Config)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("mysh: config: failed to load config: %v", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("mysh: config: failed to unmarshal config: %v", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("mysh: config: invalid config: %v", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible default settings. It is used
// as a fallback when loading a configuration file fails.
func Default() *Config {

	cfg := new(Config)

	cfg.Shell.MaxTokens = 64
	cfg.Shell.Banner = "Welcome to my shell!"
	cfg.Shell.Farewell = "Exiting my shell."

	cfg.Terminal.HistoryFile = filepath.Join(os.Getenv("HOME"), ".mysh_history")
	cfg.Terminal.HistoryLimit = 1000
	cfg.Terminal.InterruptPrompt = "^C"
	cfg.Terminal.EOFPrompt = "exit"

	cfg.Prompt.Text = "mysh> "
	cfg.Prompt.PathColour = "green"
	cfg.Prompt.PathColourBold = false
	cfg.Prompt.FailureColour = "red"

	return cfg
}

func setDefaults(v *viper.Viper) {

	d := Default()

	v.SetDefault("shell.max_tokens", d.Shell.MaxTokens)
	v.SetDefault("shell.banner", d.Shell.Banner)
	v.SetDefault("shell.farewell", d.Shell.Farewell)

	v.SetDefault("terminal.history_file", d.Terminal.HistoryFile)
	v.SetDefault("terminal.history_limit", d.Terminal.HistoryLimit)
	v.SetDefault("terminal.interrupt_prompt", d.Terminal.InterruptPrompt)
	v.SetDefault("terminal.exit_message", d.Terminal.EOFPrompt)

	v.SetDefault("prompt.text", d.Prompt.Text)
	v.SetDefault("prompt.path_colour", d.Prompt.PathColour)
	v.SetDefault("prompt.path_colour_bold", d.Prompt.PathColourBold)
	v.SetDefault("prompt.failure_colour", d.Prompt.FailureColour)

}
