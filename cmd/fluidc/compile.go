package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCompileCmd(a *app) *cobra.Command {
	var tenant string
	var cmd = &cobra.Command{
		Use:   "compile",
		Short: "Compile the views and list them",
		Long: `Compile every view of the site, or of one tenant, and print each view's
logical path and origin.  Any compilation error fails the command.

Examples:
  fluidc compile --location ./views
  fluidc compile --scope tenant --tenant acme`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine()
			if err != nil {
				return err
			}
			reg, err := e.Registry(tenant)
			if err != nil {
				return err
			}
			var w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, v := range reg.Views() {
				var kind = "view"
				if v.IsLayout() {
					kind = "layout"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", v.Path, kind, v.Origin)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant whose views to compile")
	return cmd
}
