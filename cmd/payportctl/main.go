package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/fatflowers/payport/internal/app"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "payportctl",
		Short:        "Operator tools for the payment gateway integration",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(merchantDetailsCmd())
	rootCmd.AddCommand(checksumCmd())
	rootCmd.AddCommand(adminTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withServices starts the service graph without the HTTP server, populates targets
// and runs fn.
func withServices(ctx context.Context, fn func(context.Context) error, targets ...any) error {
	a := fx.New(app.CoreModule, fx.NopLogger, fx.Populate(targets...))
	if err := a.Err(); err != nil {
		return err
	}
	startCtx, cancel := context.WithTimeout(ctx, app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	runErr := fn(ctx)

	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel2()
	if err := a.Stop(stopCtx); err != nil && runErr == nil {
		return fmt.Errorf("failed to stop: %w", err)
	}
	return runErr
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
