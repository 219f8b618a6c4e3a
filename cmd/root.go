/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tristendillon/widgetforge/core/config"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
)

var rootCmd = &cobra.Command{
	Use:   "widgetforge",
	Short: "Builds widget workspaces into deployable source trees and data documents.",
	Long: `widgetforge stages each workspace under apps/ into the build dir,
rewrites its widget sources through the marker directives, and merges its data
files into a single document. The dev command serves the result to a live
client and rebuilds on change.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

var (
	logfile     string
	verbose     bool
	noColor     bool
	projectRoot string
	buildDir    string
)

// Resolved by setup before any subcommand runs.
var (
	cfg     *config.Config
	bc      models.BuildContext
	logFile io.Closer
)

// flagBindings maps viper keys to the flag that overrides them.
var flagBindings = map[string]string{
	"build_dir":   "build-dir",
	"server.host": "host",
	"server.port": "port",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	logger.SetVerbose(verbose)
	logger.SetErrorWriter()
	if noColor {
		logger.SetColor(false)
	}
	if logfile != "" {
		closer, err := logger.AddLogFile(logfile)
		if err != nil {
			return err
		}
		logFile = closer
	}
	logger.Debug("%s called", cmd.Name())

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}

	v := config.NewViper(root)
	for key, name := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}
	bc, err = cfg.BuildContext(root)
	if err != nil {
		return err
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "File to write logs to")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "Project root containing apps/ and modules/")
	rootCmd.PersistentFlags().StringVar(&buildDir, "build-dir", "", "Output directory (overrides build_dir)")
}
