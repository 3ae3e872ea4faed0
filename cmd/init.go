/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/template_engine"
)

var (
	force       bool
	packageName string
)

var nonIdentifierRegex = regexp.MustCompile(`[^a-z0-9_]+`)

var initCmd = &cobra.Command{
	Use:   "init <dir>",
	Short: "Scaffold an example Python package ready to pack",
	Long: `Creates a small runnable Python package with package data and a
dashc.yaml, so that "dashc pack <dir>" works out of the box.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		closeLog, err := setupLogging()
		if err != nil {
			return err
		}
		defer closeLog()
		logger.Debug("init called")

		dir := args[0]
		if _, err := os.Stat(dir); err == nil {
			if !force {
				return fmt.Errorf("directory %s already exists, use --force to overwrite", dir)
			}
			logger.Debug("Directory %s already exists. Overwriting.", dir)
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("failed to remove %s: %w", dir, err)
			}
		}

		name := packageName
		if name == "" {
			name = packageNameFor(dir)
		}
		initData := map[string]string{
			"PackageName": name,
			"Version":     "0.1.0",
		}

		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		engine := template_engine.NewTemplateEngine()
		renames := map[string]string{template_engine.InitPackagePlaceholder: name}
		if err := engine.GenerateFolder(template_engine.TEMPLATES.INIT.Ref, dir, initData, renames); err != nil {
			return fmt.Errorf("failed to generate project: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Successfully generated package %s in %s\n", name, dir)
		fmt.Fprintf(out, "Next Steps:\n")
		fmt.Fprintf(out, "  - dashc pack %s -o %s.sh\n", dir, name)
		fmt.Fprintf(out, "  - ./%s.sh\n", name)
		return nil
	},
}

// packageNameFor derives an importable package name from a directory name
func packageNameFor(dir string) string {
	name := strings.ToLower(filepath.Base(filepath.Clean(dir)))
	name = strings.Trim(nonIdentifierRegex.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return "app"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "app_" + name
	}
	return name
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&force, "force", false, "Force overwrite existing files")
	initCmd.Flags().StringVar(&packageName, "package", "", "Package name (default: derived from the directory name)")
}
