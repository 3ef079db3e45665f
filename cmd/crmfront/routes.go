package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/crmfront/internal/app"
	"github.com/dropDatabas3/crmfront/internal/session"
)

func newRoutesCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "routes [path...]",
		Short: "Muestra las allow-lists configuradas o clasifica los paths dados",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			routes := app.RoutesFromConfig(cfg)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 0 {
				fmt.Fprintf(tw, "login\t%s\n", routes.Location(session.RedirectLogin))
				fmt.Fprintf(tw, "org picker\t%s\n", routes.Location(session.RedirectOrgPicker))
				for _, p := range routes.Public {
					fmt.Fprintf(tw, "%s\t%s\n", session.RoutePublic, p)
				}
				for _, p := range routes.AuthOnly {
					fmt.Fprintf(tw, "%s\t%s\n", session.RouteAuthOnly, p)
				}
				return nil
			}

			anon := session.Context{}
			for _, p := range args {
				fmt.Fprintf(tw, "%s\t%s\tanonymous=%s\n", p, routes.Classify(p), routes.Decide(p, anon))
			}
			return nil
		},
	}
}
