package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arloliu/geodb/topology"
	"github.com/arloliu/geodb/types"
)

func newShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the account topology document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSource(cmd.Context(), func(ctx context.Context, source *topology.NATS, _ *slog.Logger) error {
				account, err := source.ReadAccount(ctx, "")
				if err != nil {
					return err
				}

				return printAccount(cmd.OutOrStdout(), account)
			})
		},
	}
}

func printAccount(w io.Writer, account types.DatabaseAccount) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(account)
}
