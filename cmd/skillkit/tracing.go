package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skillkit/skillkit/pkg/telemetry"
)

// withTracing wraps the RunE of cmd and its subcommands in a span named
// after the command path
func withTracing(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		withTracing(sub)
	}
	if cmd.RunE == nil {
		return
	}

	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		attrs := []attribute.KeyValue{
			attribute.String("command.path", cmd.CommandPath()),
			attribute.Int("args.count", len(args)),
		}
		cmd.Flags().Visit(func(flag *pflag.Flag) {
			attrs = append(attrs, attribute.String("flag."+flag.Name, flag.Value.String()))
		})

		return telemetry.WithSpan(cmd.Context(), "cli."+cmd.Name(), func(ctx context.Context) error {
			cmd.SetContext(ctx)
			return run(cmd, args)
		}, attrs...)
	}
}
