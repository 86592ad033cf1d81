package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/service/client"
	"github.com/oshokin/catpoint/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the server address from the configuration file.
	serverAddress string
	// retry keeps retrying while the server is unavailable.
	retry bool

	// rootCmd represents the base command of the catpoint control tool.
	rootCmd = &cobra.Command{
		Use:   "catpoint",
		Short: "Control the catpoint security server.",
		Long: `Controls a running catpoint server over gRPC.

Arms and disarms the system, manages sensors, submits camera images and watches the state.
Every command prints the state reported by the server after the operation.
Server address and timeout are loaded from the configuration file unless overridden.`,
		SilenceUsage: true,
	}
)

// Execute runs the catpoint CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runAction executes one client action with signal-aware cancellation.
func runAction(cmd *cobra.Command, name string, action client.Action) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Retry:         retry,
		Output:        cmd.OutOrStdout(),
	}, name, action)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "a", "", "server address, overrides the configuration file")
	rootCmd.PersistentFlags().
		BoolVarP(&retry, "retry", "r", false, "retry until the server is reachable")

	rootCmd.AddCommand(
		newStatusCommand(),
		newArmCommand(),
		newDisarmCommand(),
		newClearCommand(),
		newImageCommand(),
		newSensorCommand(),
		newWatchCommand(),
	)
}
