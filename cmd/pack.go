/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tristendillon/dashc/core/config"
	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/packager"
	"github.com/tristendillon/dashc/core/walker"
)

var (
	code       string
	configFile string
	verify     bool
	jobs       int
)

var packCmd = &cobra.Command{
	Use:   "pack [path...]",
	Short: "Package Python sources into a python -c command",
	Long: `Packages inline code (-c), a .py file or a directory into a single
python -c command and prints it, or writes it as a script with --output.

Settings come from dashc.yaml, dashc.toml or [tool.dashc] in pyproject.toml
next to the source, overridden by DASHC_* environment variables and flags.`,
	Example: `  dashc pack -c 'print("hello")'
  dashc pack ./tool.py
  dashc pack ./src --entry my_app.cli:main --mode container -o run.sh`,
	RunE: func(cmd *cobra.Command, args []string) error {
		closeLog, err := setupLogging()
		if err != nil {
			return err
		}
		defer closeLog()
		logger.Debug("pack called")

		cfg, err := resolveConfig(cmd, args)
		if err != nil {
			return err
		}
		reqs, err := buildRequests(cmd, cfg, args)
		if err != nil {
			return err
		}
		if cfg.Output != "" && len(reqs) > 1 {
			return fmt.Errorf("--output takes a single source, got %d", len(reqs))
		}

		results, err := packager.PackageAll(cmd.Context(), reqs, jobs)
		if err != nil {
			return err
		}

		if cfg.Output != "" {
			if err := packager.WriteScript(cfg.Output, results[0].Command); err != nil {
				return err
			}
			logger.Info("Wrote %s (%d bytes, entry %s)", cfg.Output, len(results[0].Command), results[0].Entry)
			return nil
		}

		// Commands span several lines; a blank line separates them and the
		// output as a whole is a script running each in turn.
		out := cmd.OutOrStdout()
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, res.Command)
		}
		return nil
	},
}

// addPackFlags registers the packaging flags shared by pack, inspect and watch
func addPackFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&code, "code", "c", "", "Inline program text to package")
	cmd.Flags().StringVar(&configFile, "config", "", "Config file (default: dashc.yaml, dashc.toml or pyproject.toml next to the source)")
	cmd.Flags().String("entry", "", "Entry point: module to run as __main__, or module:function")
	cmd.Flags().String("mode", "", "Archive mode: flat or container")
	cmd.Flags().String("compression", "", "Payload encoding: compressed or uncompressed")
	cmd.Flags().Bool("readonly", false, "Never write to the filesystem at runtime")
	cmd.Flags().String("quoting", "", "Shell quoting: single or double")
	cmd.Flags().String("python", "", "Python interpreter named in the command")
	cmd.Flags().String("template-dir", "", "Directory overriding the bootstrap templates")
	cmd.Flags().StringSlice("exclude", nil, "Directory names or relative paths to skip")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-parse the command and check the program survives quoting")
}

// resolveConfig loads the config file for the source and layers env and
// flags on top
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var base *config.Config
	if configFile != "" {
		cfg, found, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%s has no dashc settings", configFile)
		}
		base = cfg
	} else {
		cfg, err := config.Load(configDir(args))
		if err != nil {
			return nil, err
		}
		base = cfg
	}

	return config.Layer(base, cmd.Flags())
}

// configDir is where config files are looked up: the source directory, the
// directory of a source file, or the working directory
func configDir(args []string) string {
	if len(args) == 0 {
		return ""
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return ""
	}
	if info.IsDir() {
		return args[0]
	}
	return filepath.Dir(args[0])
}

func buildRequests(cmd *cobra.Command, cfg *config.Config, args []string) ([]packager.Request, error) {
	var sources []walker.Descriptor
	switch {
	case cmd.Flags().Changed("code") && len(args) > 0:
		return nil, fmt.Errorf("pass either -c or paths, not both")
	case cmd.Flags().Changed("code"):
		sources = append(sources, walker.InlineSource(code))
	case len(args) == 0:
		return nil, fmt.Errorf("nothing to package: pass -c or a path")
	default:
		for _, arg := range args {
			sources = append(sources, walker.PathSource(arg))
		}
	}

	reqs := make([]packager.Request, 0, len(sources))
	for _, src := range sources {
		req, err := packager.RequestFromConfig(cfg, src)
		if err != nil {
			return nil, err
		}
		req.Verify = verify
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func init() {
	rootCmd.AddCommand(packCmd)

	addPackFlags(packCmd)
	packCmd.Flags().StringP("output", "o", "", "Write an executable bash script instead of printing the command")
	packCmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Sources packaged in parallel")
}
