package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/arloliu/geodb/topology"
)

type globalOptions struct {
	natsURL  string
	bucket   string
	key      string
	logLevel string
	timeout  time.Duration
	create   bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "geodbctl",
		Short:         "Inspect and change the geodb account topology",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.natsURL, "nats-url", nats.DefaultURL, "NATS server URL")
	flags.StringVar(&opts.bucket, "bucket", "geodb-config", "NATS KV bucket holding the account document")
	flags.StringVar(&opts.key, "key", topology.DefaultNATSConfig().Key, "NATS KV key of the account document")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Timeout for NATS operations")

	cmd.AddCommand(
		newShowCommand(opts),
		newPublishCommand(opts),
		newFailoverCommand(opts),
	)

	return cmd
}

func (o *globalOptions) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", o.logLevel, err)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// withSource connects to NATS, opens the bucket and runs fn against it.
func (o *globalOptions) withSource(ctx context.Context, fn func(context.Context, *topology.NATS, *slog.Logger) error) error {
	logger, err := o.logger()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	nc, err := nats.Connect(o.natsURL, nats.Name("geodbctl"))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", o.natsURL, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	var kv jetstream.KeyValue
	if o.create {
		kv, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: o.bucket, History: 5})
	} else {
		kv, err = js.KeyValue(ctx, o.bucket)
	}
	if err != nil {
		return fmt.Errorf("open bucket %q: %w", o.bucket, err)
	}

	source, err := topology.NewNATS(kv, topology.WithKey(o.key), topology.WithFetchTimeout(o.timeout))
	if err != nil {
		return err
	}
	defer source.Close()

	logger.Debug("connected", "url", o.natsURL, "bucket", o.bucket, "key", o.key)

	return fn(ctx, source, logger)
}
