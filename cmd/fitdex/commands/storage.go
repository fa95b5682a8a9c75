package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fitdex/fitdex/pkg/storage"
)

func newStorageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect the storage backend",
	}

	cmd.AddCommand(newStorageKeysCommand())
	cmd.AddCommand(newStorageHealthCommand())

	return cmd
}

func newStorageKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			keys, err := a.kv.Keys(cmd.Context())
			if errors.Is(err, storage.ErrKeysUnsupported) {
				return fmt.Errorf("the %s backend cannot list keys", a.cfg.Storage.Driver)
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				if keys == nil {
					keys = []string{}
				}
				return printJSON(cmd.OutOrStdout(), keys)
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No keys stored.")
				return nil
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newStorageHealthCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the storage backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			start := time.Now()
			err = a.kv.HealthCheck(ctx)
			elapsed := time.Since(start)

			if jsonOutput {
				out := map[string]any{
					"driver":     a.cfg.Storage.Driver,
					"healthy":    err == nil,
					"latency_ms": elapsed.Milliseconds(),
				}
				for _, res := range a.report.Results {
					out[res.Store+"_hydration"] = res.Status
				}
				if err != nil {
					out["error"] = err.Error()
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			if err != nil {
				return fmt.Errorf("%s storage unhealthy: %w", a.cfg.Storage.Driver, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s storage healthy (%s)\n", a.cfg.Storage.Driver, elapsed.Round(time.Microsecond))
			for _, res := range a.report.Results {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %s\n", res.Store, res.Status)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "health check timeout")

	return cmd
}
