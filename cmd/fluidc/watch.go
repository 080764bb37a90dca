package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var tenant string
	var cmd = &cobra.Command{
		Use:   "watch",
		Short: "Recompile the views whenever they change",
		Long: `Compile the site's views, then recompile them after every change below
the template directories until interrupted.  Compilation errors are logged
and do not stop the watch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.engine()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var changed = make(chan struct{}, 1)
			go func() {
				for {
					if reg, err := e.Registry(tenant); err != nil {
						a.logger.Error("compile failed", "error", err)
					} else {
						a.logger.Info("views ready", "tenant", tenant, "views", reg.Len())
					}
					select {
					case <-ctx.Done():
						return
					case <-changed:
					}
				}
			}()
			return e.Watch(ctx, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant whose views to recompile")
	return cmd
}
