// Package main is the entry point of the mysh command interpreter. It parses
// the command line, loads the configuration and hands over to mysh.Run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mysh/internal/config"
	"mysh/internal/mysh"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "mysh [script]",
	Short: "A small command interpreter",
	Long: `mysh runs commands with pipelines, < and > redirection, wildcards and
then/else conditionals. Without a script it starts an interactive session
when standard input is a terminal.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		var dirs []string
		if configDir != "" {
			dirs = append(dirs, configDir)
		}

		cfg, err := config.Load(dirs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			cfg = config.Default()
		}

		var script string
		if len(args) == 1 {
			script = args[0]
		}

		return mysh.Run(cfg, script)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configDir, "config", "", "directory holding mysh.yaml")
}

// main starts mysh.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
