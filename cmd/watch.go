/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/packager"
	"github.com/tristendillon/dashc/core/walker"
	"github.com/tristendillon/dashc/core/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Repackage a source tree whenever it changes",
	Long: `Watches a source directory and rewrites the output script each time
the content of a file under it changes. Packaging errors are logged and the
previous script is left in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		closeLog, err := setupLogging()
		if err != nil {
			return err
		}
		defer closeLog()
		logger.Debug("watch called")

		root := args[0]
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("%s is not a directory", root)
		}

		cfg, err := resolveConfig(cmd, args)
		if err != nil {
			return err
		}
		if cfg.Output == "" {
			return fmt.Errorf("watch needs an output script: pass --output or set output in the config")
		}
		req, err := packager.RequestFromConfig(cfg, walker.PathSource(root))
		if err != nil {
			return err
		}
		req.Verify = verify

		excludes := append([]string{}, walker.DefaultExcludes...)
		excludes = append(excludes, cfg.Exclude...)
		if rel, ok := insideRoot(root, cfg.Output); ok {
			excludes = append(excludes, rel)
		}

		fw, err := watcher.NewFileWatcher(root, excludes)
		if err != nil {
			return err
		}
		defer fw.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var last string
		repackage := func() error {
			res, err := packager.Package(ctx, req)
			if err != nil {
				return err
			}
			if res.Command == last {
				logger.Debug("Command unchanged, %s left as is", cfg.Output)
				return nil
			}
			if err := packager.WriteScript(cfg.Output, res.Command); err != nil {
				return err
			}
			last = res.Command
			logger.Info("Wrote %s (%d bytes, entry %s)", cfg.Output, len(res.Command), res.Entry)
			return nil
		}

		fw.FileWatcher.AddOnStartFunc(repackage)
		fw.FileWatcher.AddOnChangeFunc(repackage)
		fw.FileWatcher.AddOnCloseFunc(func() error {
			fw.Content.LogStats()
			return nil
		})

		logger.Info("Watching %s, press Ctrl+C to stop", root)
		return fw.Watch(ctx)
	},
}

// insideRoot returns path relative to root when it lies under root
func insideRoot(root, path string) (string, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return rel, true
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addPackFlags(watchCmd)
	watchCmd.Flags().StringP("output", "o", "", "Script rewritten on every change")
}
