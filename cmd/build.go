/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tristendillon/widgetforge/core/builder"
	"github.com/tristendillon/widgetforge/core/logger"
)

var buildCmd = &cobra.Command{
	Use:   "build [workspace...]",
	Short: "Build workspaces into the build dir",
	Long: `Stages and transforms each workspace's widget sources and aggregates its
data files. With no arguments every workspace under the apps dir is built.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := builder.NewBuilder(bc)
		results, err := b.BuildAll(cmd.Context(), args)
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		logger.Info("Built %d workspaces into %s", len(results), bc.BuildDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
