package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/geodb/topology"
	"github.com/arloliu/geodb/types"
)

type publishOptions struct {
	file string
}

func newPublishCommand(opts *globalOptions) *cobra.Command {
	publishOpts := publishOptions{}

	cmd := &cobra.Command{
		Use:   "publish --file FILE",
		Short: "Publish an account topology document from a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := loadAccountFile(publishOpts.file)
			if err != nil {
				return err
			}

			return opts.withSource(cmd.Context(), func(ctx context.Context, source *topology.NATS, logger *slog.Logger) error {
				if err := source.Publish(ctx, account); err != nil {
					return err
				}

				write, _ := account.WriteLocation()
				logger.Info("account published",
					"account", account.ID,
					"write_location", write.Name,
					"readable", len(account.ReadableLocations),
				)

				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&publishOpts.file, "file", "f", "", "Account document (YAML or JSON)")
	flags.BoolVar(&opts.create, "create-bucket", false, "Create the KV bucket if it does not exist")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// loadAccountFile reads and validates an account document.
func loadAccountFile(path string) (types.DatabaseAccount, error) {
	if path == "" {
		return types.DatabaseAccount{}, errors.New("--file is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.DatabaseAccount{}, fmt.Errorf("read %s: %w", path, err)
	}

	var account types.DatabaseAccount
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &account)
	} else {
		err = yaml.Unmarshal(data, &account)
	}
	if err != nil {
		return types.DatabaseAccount{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := validateAccount(account); err != nil {
		return types.DatabaseAccount{}, fmt.Errorf("%s: %w", path, err)
	}

	return account, nil
}

func validateAccount(account types.DatabaseAccount) error {
	if len(account.WritableLocations) == 0 {
		return errors.New("account has no writable location")
	}

	for _, loc := range append(account.WritableLocations, account.ReadableLocations...) {
		if loc.Name == "" || loc.Endpoint == "" {
			return fmt.Errorf("location %+v needs both name and endpoint", loc)
		}
	}

	return nil
}
