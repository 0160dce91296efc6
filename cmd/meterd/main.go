package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/meterd-io/meterd/internal/interfaces/cli/migrate"
	"github.com/meterd-io/meterd/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "meterd",
		Short: "meterd - traffic accounting and service lifecycle engine",
		Long:  `meterd meters proxy service traffic, enforces bandwidth limits, resets counters on billing cycles and resolves node lists per service.`,
	}

	rootCmd.AddCommand(
		worker.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
