/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tristendillon/widgetforge/core/template_engine"
)

var (
	force   bool
	account string
)

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Initialize a new workspace",
	Long:  `Creates the config, a sample widget and sample data files for a new workspace under the apps dir.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		written, err := template_engine.ScaffoldWorkspace(bc, name, account, force)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Successfully generated workspace: %s\n", name)
		for _, f := range written {
			fmt.Fprintf(out, "  + %s\n", f)
		}

		fmt.Fprintf(out, "Next Steps:\n")
		if account == "" {
			fmt.Fprintf(out, "  - set creatorAccount in %s/%s/widget.config.yaml\n", cfg.AppsDir, name)
		}
		fmt.Fprintf(out, "  - widgetforge dev %s\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&force, "force", false, "Force overwrite existing files")
	initCmd.Flags().StringVar(&account, "account", "", "Creator account for the new workspace")
}
