package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tessera-cms/fluid"
	"github.com/tessera-cms/fluid/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		req      fluid.Request
		dataFile string
	)
	var cmd = &cobra.Command{
		Use:   "render <view>",
		Short: "Render a view to standard output",
		Long: `Render the view at the given logical path, wrapped in its layouts.  The
render data is read from a YAML mapping.

Examples:
  fluidc render pages/home --data home.yaml
  fluidc render pages/home --tenant acme --lang fr-CA --layout layouts/print`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Path = args[0]
			if dataFile != "" {
				var f, err = os.Open(dataFile)
				if err != nil {
					return err
				}
				req.Data, err = render.ParseGlobals(f)
				f.Close()
				if err != nil {
					return err
				}
			}
			e, err := a.engine()
			if err != nil {
				return err
			}
			return e.Execute(cmd.OutOrStdout(), req)
		},
	}
	var flags = cmd.Flags()
	flags.StringVar(&dataFile, "data", "", "YAML file of render data")
	flags.StringVar(&req.Tenant, "tenant", "", "tenant to render for")
	flags.StringSliceVar(&req.Languages, "lang", nil, "preferred locales, most preferred first")
	flags.String("layout", "", "layout for views that do not choose one")
	flags.Bool("autoescape", true, "HTML-escape output")
	a.bind(cmd, "render.layout", "layout")
	a.bind(cmd, "render.autoescape", "autoescape")
	return cmd
}
