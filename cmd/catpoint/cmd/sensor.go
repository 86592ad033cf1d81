package cmd

import (
	"context"

	"github.com/spf13/cobra"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/service/common"
)

func newSensorCommand() *cobra.Command {
	sensorCmd := &cobra.Command{
		Use:   "sensor",
		Short: "Manage sensors.",
		Long:  "Adds, removes, activates and deactivates door, window and motion sensors.",
	}

	sensorCmd.AddCommand(
		newSensorActionCommand("add", "Register a sensor.",
			func(ctx context.Context, c *common.Client, key domain.SensorKey) (*domain.Snapshot, error) {
				return c.AddSensor(ctx, domain.Sensor{Name: key.Name, Type: key.Type})
			}),
		newSensorActionCommand("remove", "Forget a sensor.",
			func(ctx context.Context, c *common.Client, key domain.SensorKey) (*domain.Snapshot, error) {
				return c.RemoveSensor(ctx, key)
			}),
		newSensorActionCommand("activate", "Report a sensor as triggered.",
			func(ctx context.Context, c *common.Client, key domain.SensorKey) (*domain.Snapshot, error) {
				return c.ChangeSensorActivation(ctx, key, true)
			}),
		newSensorActionCommand("deactivate", "Report a sensor as calm.",
			func(ctx context.Context, c *common.Client, key domain.SensorKey) (*domain.Snapshot, error) {
				return c.ChangeSensorActivation(ctx, key, false)
			}),
	)

	return sensorCmd
}

func newSensorActionCommand(
	name string,
	short string,
	action func(ctx context.Context, c *common.Client, key domain.SensorKey) (*domain.Snapshot, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <door|window|motion> <name>",
		Short: short,
		Args:  cobra.ExactArgs(2), //nolint:mnd // Sensor type and name.
		RunE: func(cmd *cobra.Command, args []string) error {
			sensorType, err := domain.ParseSensorType(args[0])
			if err != nil {
				return err
			}

			key := domain.SensorKey{Name: args[1], Type: sensorType}

			return runAction(cmd, "sensor "+name, func(ctx context.Context, c *common.Client) (*domain.Snapshot, error) {
				return action(ctx, c, key)
			})
		},
	}
}
