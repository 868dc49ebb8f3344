package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/whodunit/cmd/cli/scenario"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/spf13/cobra"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(scenario.Group)
	rootCmd.AddCommand(scenario.Validate)
	rootCmd.AddCommand(scenario.List)
}

var rootCmd = &cobra.Command{
	Use:           "whodunit-cli",
	Long:          `Command line utilities for whodunit scenarios`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
