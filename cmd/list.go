package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tristendillon/widgetforge/core/builder"
	"github.com/tristendillon/widgetforge/core/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the workspaces under the apps dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		workspaces, err := builder.NewBuilder(bc).Discover()
		if err != nil {
			return err
		}

		name := color.New(color.FgCyan, color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		warn := color.New(color.FgYellow).SprintFunc()

		out := cmd.OutOrStdout()
		for _, ws := range workspaces {
			wcfg, err := config.LoadWorkspace(ws)
			switch {
			case err != nil:
				fmt.Fprintf(out, "%s\t%s\n", name(ws.ID), warn(err))
			case !wcfg.HasAccount():
				fmt.Fprintf(out, "%s\t%s\n", name(ws.ID), warn("no creatorAccount"))
			default:
				fmt.Fprintf(out, "%s\t%s %s\n", name(ws.ID), wcfg.CreatorAccount, faint(fmt.Sprintf("(%d aliases)", len(wcfg.Aliases))))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
