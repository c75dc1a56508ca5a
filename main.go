package main

import (
	"os"

	"github.com/spf13/cobra"

	"eleanor-server/internal/logging"
	"eleanor-server/internal/startup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. With no subcommand the server runs.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "eleanor-server",
		Short:         "Index audio libraries and stream them by content hash",
		Version:       startup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.SetupFile(os.Getenv("LOG_FILE"))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"settings file (default $ELEANOR_CONFIG or ./"+startup.DefaultConfigFile+")")

	root.AddCommand(
		newServeCmd(&configPath),
		newIndexCmd(&configPath),
		newUserCmd(&configPath),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the startup index and serve the catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}
