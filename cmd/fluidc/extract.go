package main

import (
	"github.com/spf13/cobra"

	"github.com/tessera-cms/fluid/locale"
)

func newExtractCmd(a *app) *cobra.Command {
	var tenant string
	var cmd = &cobra.Command{
		Use:   "extract",
		Short: "Write a PO template of the translatable messages",
		Long: `Compile the views and write the messages they translate with the t filter
to standard output, in the PO (gettext) template format.

Example:
  fluidc extract --location ./views > locales/messages.pot`,
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
			var file = locale.Extract(reg)
			a.logger.Info("extracted messages", "messages", len(file.Messages))
			file.WriteTo(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant whose views to read")
	return cmd
}
