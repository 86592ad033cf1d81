package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/catpoint/internal/service/checker"
)

func newWatchCommand() *cobra.Command {
	var (
		interval    time.Duration
		exitOnAlarm bool
	)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print state changes as they happen.",
		Long: `Polls the server at a fixed interval and prints every change of the arming mode,
the alarm status and the sensors. With --exit-on-alarm the command fails as soon as the
alarm goes off, which lets scripts react to it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return checker.Run(ctx, &checker.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				PollInterval:  interval,
				ExitOnAlarm:   exitOnAlarm,
				Output:        cmd.OutOrStdout(),
			})
		},
	}

	watchCmd.Flags().DurationVarP(&interval, "interval", "i", checker.DefaultPollInterval, "polling interval")
	watchCmd.Flags().BoolVar(&exitOnAlarm, "exit-on-alarm", false, "exit with an error once the alarm goes off")

	return watchCmd
}
