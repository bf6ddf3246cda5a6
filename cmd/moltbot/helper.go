package main

import (
	"context"
	"fmt"
	"os"

	"github.com/harunnryd/moltbot/cmd/moltbot/runtime"

	"github.com/harunnryd/moltbot/internal/config"
	"github.com/harunnryd/moltbot/internal/formatter"

	"github.com/spf13/cobra"
)

func executeWithRuntime(cmd *cobra.Command, fn func(*runtime.RuntimeComponents) error) error {
	loaded := cfg
	if loaded == nil {
		var err error
		loaded, err = config.Load(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := runtime.NewRuntimeBuilder().
		WithContext(ctx).
		WithConfig(loaded).
		Build()
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer components.Stop()

	err = fn(components)
	warnIfEscalated(components)
	return err
}

func warnIfEscalated(rc *runtime.RuntimeComponents) {
	if count, ok := rc.Escalated(); ok {
		fmt.Fprintf(os.Stderr, "Warning: %d security violations exceed the threshold of %d, the agent may be compromised\n",
			count, rc.PolicyEngine.Threshold())
	}
}

func resolveFormatter(cmd *cobra.Command) (formatter.Formatter, error) {
	format, err := outputFormat(cmd)
	if err != nil {
		return nil, err
	}
	return formatter.NewFormatterFactory().Create(format)
}

func outputFormat(cmd *cobra.Command) (formatter.OutputFormat, error) {
	raw, _ := cmd.Flags().GetString("output")
	return formatter.ParseOutputFormat(raw)
}
