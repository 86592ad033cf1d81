package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/service/common"
)

// Options controls the watch polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval defines the interval between state checks.
	PollInterval time.Duration
	// ExitOnAlarm stops watching with ErrAlarmTriggered once the alarm goes off.
	ExitOnAlarm bool
	// Output receives one line per observed change.
	Output io.Writer
}

// DefaultPollInterval defines the default interval between state checks.
const DefaultPollInterval = 5 * time.Second

// ErrAlarmTriggered is returned when ExitOnAlarm is set and the alarm is on.
var ErrAlarmTriggered = errors.New("alarm triggered")

// StateReader reads the current state from the server.
type StateReader interface {
	State(ctx context.Context) (*domain.Snapshot, error)
}

// Run polls the server state and reports every change until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "catpoint-watch")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Watching state", "server_address", serverAddress, "interval", opts.PollInterval.String())

	return Watch(ctx, client, opts)
}

// Watch polls the reader at the configured interval and reports changes.
func Watch(ctx context.Context, reader StateReader, opts *Options) error {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	w := &watcher{
		reader:      reader,
		output:      opts.Output,
		exitOnAlarm: opts.ExitOnAlarm,
	}

	if err := w.check(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
			if err := w.check(ctx); err != nil {
				return err
			}
		}
	}
}

// watcher remembers the last state to report only changes.
type watcher struct {
	// reader fetches the state.
	reader StateReader
	// output receives change lines.
	output io.Writer
	// exitOnAlarm stops watching when the alarm is on.
	exitOnAlarm bool
	// last is the previously observed state, nil before the first read.
	last *domain.Snapshot
}

// check reads the state once. Read failures are logged and do not stop watching.
func (w *watcher) check(ctx context.Context) error {
	current, err := w.reader.State(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Check state failed", "error", err)

		return nil
	}

	for _, line := range describeChanges(w.last, current) {
		logger.Info(ctx, line)

		if w.output != nil {
			_, _ = fmt.Fprintln(w.output, line)
		}
	}

	w.last = current

	if w.exitOnAlarm && current.AlarmStatus == domain.Alarm {
		return ErrAlarmTriggered
	}

	return nil
}

// describeChanges lists the differences between two states. A nil previous state reports everything.
func describeChanges(previous, current *domain.Snapshot) []string {
	var lines []string

	if previous == nil || previous.ArmingStatus != current.ArmingStatus {
		lines = append(lines, fmt.Sprintf("arming: %s", current.ArmingStatus.Description()))
	}

	if previous == nil || previous.AlarmStatus != current.AlarmStatus {
		lines = append(lines, fmt.Sprintf("alarm: %s", current.AlarmStatus.Description()))
	}

	for _, sensor := range current.Sensors {
		if previous != nil {
			if old, ok := domain.Find(previous.Sensors, sensor.Key()); ok && old.Active == sensor.Active {
				continue
			}
		}

		activation := "inactive"
		if sensor.Active {
			activation = "active"
		}

		lines = append(lines, fmt.Sprintf("sensor %s: %s", sensor.Key(), activation))
	}

	if previous != nil {
		for _, sensor := range previous.Sensors {
			if _, ok := domain.Find(current.Sensors, sensor.Key()); !ok {
				lines = append(lines, fmt.Sprintf("sensor %s: removed", sensor.Key()))
			}
		}
	}

	return lines
}
