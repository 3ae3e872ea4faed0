/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tristendillon/dashc/core/logger"
)

var rootCmd = &cobra.Command{
	Use:   "dashc",
	Short: "Package Python code into a single python -c command.",
	Long: `dashc packs a Python snippet, file or whole package tree into one
self-contained shell command of the form: python -c '<bootstrap>'.

The command carries the sources as a compressed payload and installs an
in-memory importer, so it runs anywhere a Python interpreter exists, with
nothing to copy or install first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var logfile string
var verbose bool

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// setupLogging applies --verbose and --logfile. The returned func closes
// the log file.
func setupLogging() (func(), error) {
	logger.SetVerbose(verbose)
	if logfile == "" {
		return func() {}, nil
	}

	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.AddWriterForAll(f)
	return func() { f.Close() }, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "File to write logs to")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
