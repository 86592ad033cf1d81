package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseAlarmStatus verifies canonical names, normalization and rejection of unknown values.
func TestParseAlarmStatus(t *testing.T) {
	t.Parallel()

	for _, status := range AlarmStatuses() {
		got, err := ParseAlarmStatus(status.String())
		require.NoError(t, err)
		require.Equal(t, status, got)
	}

	got, err := ParseAlarmStatus(" pending-alarm ")
	require.NoError(t, err)
	require.Equal(t, PendingAlarm, got)

	_, err = ParseAlarmStatus("SIREN")
	require.ErrorIs(t, err, ErrUnknownValue)
}

// TestParseArmingStatus verifies canonical names, normalization and rejection of unknown values.
func TestParseArmingStatus(t *testing.T) {
	t.Parallel()

	for _, status := range ArmingStatuses() {
		got, err := ParseArmingStatus(status.String())
		require.NoError(t, err)
		require.Equal(t, status, got)
	}

	got, err := ParseArmingStatus("armed home")
	require.NoError(t, err)
	require.Equal(t, ArmedHome, got)

	_, err = ParseArmingStatus("")
	require.ErrorIs(t, err, ErrUnknownValue)
}

// TestArmingStatus_IsArmed checks which modes monitor sensors.
func TestArmingStatus_IsArmed(t *testing.T) {
	t.Parallel()

	require.False(t, Disarmed.IsArmed())
	require.True(t, ArmedHome.IsArmed())
	require.True(t, ArmedAway.IsArmed())
}

// TestInvalidValues ensures out-of-range members render safely.
func TestInvalidValues(t *testing.T) {
	t.Parallel()

	require.False(t, AlarmStatus(7).Valid())
	require.Equal(t, "AlarmStatus(7)", AlarmStatus(7).String())
	require.Equal(t, "AlarmStatus(7)", AlarmStatus(7).Description())

	require.False(t, ArmingStatus(9).Valid())
	require.False(t, ArmingStatus(9).IsArmed())
	require.Equal(t, "ArmingStatus(9)", ArmingStatus(9).String())
}

// TestDescriptions pins the user-facing texts.
func TestDescriptions(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Cool and Good", NoAlarm.Description())
	require.Equal(t, "Awooga!", Alarm.Description())
	require.Equal(t, "Armed - At Home", ArmedHome.Description())
}
