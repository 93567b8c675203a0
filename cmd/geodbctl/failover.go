package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arloliu/geodb/topology"
)

func newFailoverCommand(opts *globalOptions) *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "failover --location NAME",
		Short: "Promote a location to be the write region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSource(cmd.Context(), func(ctx context.Context, source *topology.NATS, logger *slog.Logger) error {
				before, err := source.ReadAccount(ctx, "")
				if err != nil {
					return err
				}
				previous, _ := before.WriteLocation()

				if err := source.Failover(ctx, location); err != nil {
					return err
				}

				logger.Warn("write location changed",
					"from", previous.Name,
					"to", location,
				)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "Location to promote (e.g., \"West US\")")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}
