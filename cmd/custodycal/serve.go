package main

import (
	"github.com/spf13/cobra"

	"custodycal/internal/web"
)

func serveCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar, exports and JSON API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			// --listen overrides config file listen if provided.
			if listen != "" {
				a.cfg.Listen = listen
			}
			return web.NewServer(a.pipe, nil).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
