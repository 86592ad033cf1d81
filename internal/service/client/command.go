package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/service/common"
)

// Action performs one operation and returns the resulting state.
type Action func(ctx context.Context, client *common.Client) (*domain.Snapshot, error)

// Options configures a single CLI invocation.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Retry keeps retrying while the server is unavailable.
	Retry bool

	// Output receives the rendered state.
	Output io.Writer
}

// defaultRetryInterval defines the delay between attempts when retrying.
const defaultRetryInterval = 1 * time.Second

// Run connects to the server, executes the action and prints the state.
func Run(ctx context.Context, opts *Options, name string, action Action) error {
	ctx = logger.WithName(ctx, "catpoint")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Running command", "command", name, "server_address", serverAddress)

	snapshot, err := execute(ctx, client, action, opts.Retry)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if opts.Output != nil {
		_, err = io.WriteString(opts.Output, FormatState(snapshot))
	}

	return err
}

// execute runs the action once, or until it stops failing with Unavailable when retry is set.
func execute(ctx context.Context, client *common.Client, action Action, retry bool) (*domain.Snapshot, error) {
	snapshot, err := action(ctx, client)
	if !retry || !isUnavailable(err) {
		return snapshot, err
	}

	ticker := time.NewTicker(defaultRetryInterval)
	defer ticker.Stop()

	for {
		logger.WarnKV(ctx, "Server unavailable, retrying", "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			snapshot, err = action(ctx, client)
			if !isUnavailable(err) {
				return snapshot, err
			}
		}
	}
}

func isUnavailable(err error) bool {
	return err != nil && status.Code(err) == codes.Unavailable
}

// FormatState renders the state as human readable text.
func FormatState(snapshot *domain.Snapshot) string {
	if snapshot == nil {
		return "<nil state>\n"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Alarm:  %s (%s)\n", snapshot.AlarmStatus, snapshot.AlarmStatus.Description())
	fmt.Fprintf(&b, "Arming: %s (%s)\n", snapshot.ArmingStatus, snapshot.ArmingStatus.Description())

	if len(snapshot.Sensors) == 0 {
		b.WriteString("Sensors: none\n")

		return b.String()
	}

	b.WriteString("Sensors:\n")

	for _, sensor := range snapshot.Sensors {
		activation := "inactive"
		if sensor.Active {
			activation = "active"
		}

		fmt.Fprintf(&b, "  %-7s %-24s %s\n", sensor.Type, sensor.Name, activation)
	}

	return b.String()
}
