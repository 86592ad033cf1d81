package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/service/common"
)

var (
	// errEmptyImage is returned for empty image input.
	errEmptyImage = errors.New("image is empty")
	// errNotArmingMode is returned when arm is given a mode that does not arm.
	errNotArmingMode = errors.New("not an arming mode, use disarm")
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, "status", func(ctx context.Context, c *common.Client) (*domain.Snapshot, error) {
				return c.State(ctx)
			})
		},
	}
}

func newArmCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "arm <home|away>",
		Short:     "Arm the system.",
		Long:      "Arms the system at home or away. Arming resets every sensor to inactive.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"home", "away"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := parseArmingMode(args[0])
			if err != nil {
				return err
			}

			return runAction(cmd, "arm", func(ctx context.Context, c *common.Client) (*domain.Snapshot, error) {
				return c.SetArmingStatus(ctx, status)
			})
		},
	}
}

func newDisarmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disarm",
		Short: "Disarm the system and reset the alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, "disarm", func(ctx context.Context, c *common.Client) (*domain.Snapshot, error) {
				return c.SetArmingStatus(ctx, domain.Disarmed)
			})
		},
	}
}

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset the alarm status without disarming.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, "clear", func(ctx context.Context, c *common.Client) (*domain.Snapshot, error) {
				return c.ClearAlarm(ctx)
			})
		},
	}
}

func newImageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "image <file|->",
		Short: "Submit a camera image for cat detection.",
		Long:  "Reads an image from the file, or from standard input when the argument is \"-\", and submits it to the server.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := readImage(cmd, args[0])
			if err != nil {
				return err
			}

			return runAction(cmd, "image", func(ctx context.Context, c *common.Client) (*domain.Snapshot, error) {
				return c.ProcessImage(ctx, image)
			})
		},
	}
}

// parseArmingMode accepts short modes (home, away) and full status names.
func parseArmingMode(mode string) (domain.ArmingStatus, error) {
	switch strings.ToLower(mode) {
	case "home":
		return domain.ArmedHome, nil
	case "away":
		return domain.ArmedAway, nil
	}

	status, err := domain.ParseArmingStatus(mode)
	if err != nil {
		return status, err
	}

	if !status.IsArmed() {
		return status, fmt.Errorf("%q: %w", mode, errNotArmingMode)
	}

	return status, nil
}

func readImage(cmd *cobra.Command, path string) (domain.Image, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
			return nil, fmt.Errorf("read image from stdin: %w", err)
		}
	} else if data, err = os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, errEmptyImage)
	}

	return domain.Image(data), nil
}
