/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tristendillon/dashc/core/archive"
	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/packager"
)

type inspectReport struct {
	Source   string           `yaml:"source"`
	Warnings []string         `yaml:"warnings,omitempty"`
	Manifest archive.Manifest `yaml:"manifest"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [path...]",
	Short: "Show what a pack would embed",
	Long: `Runs the packaging pipeline and prints a YAML manifest of the result:
the entry point, every embedded file with its sha256, and the archive,
payload and command sizes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		closeLog, err := setupLogging()
		if err != nil {
			return err
		}
		defer closeLog()
		logger.Debug("inspect called")

		cfg, err := resolveConfig(cmd, args)
		if err != nil {
			return err
		}
		reqs, err := buildRequests(cmd, cfg, args)
		if err != nil {
			return err
		}

		results, err := packager.PackageAll(cmd.Context(), reqs, jobs)
		if err != nil {
			return err
		}

		reports := make([]inspectReport, 0, len(results))
		for i, res := range results {
			report := inspectReport{Source: reqs[i].Source.Value, Manifest: res.Manifest}
			if len(args) == 0 {
				report.Source = "<inline>"
			}
			for _, w := range res.Warnings {
				report.Warnings = append(report.Warnings, w.Error())
			}
			reports = append(reports, report)
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		for _, report := range reports {
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("failed to encode manifest: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	addPackFlags(inspectCmd)
	inspectCmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Sources inspected in parallel")
}
