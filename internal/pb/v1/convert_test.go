package pb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// TestSnapshotDocument converts a snapshot to a document and back.
func TestSnapshotDocument(t *testing.T) {
	t.Parallel()

	want := &domain.Snapshot{
		AlarmStatus:  domain.PendingAlarm,
		ArmingStatus: domain.ArmedAway,
		Sensors: []domain.Sensor{
			{Name: "Door1", Type: domain.Door, Active: true},
			{Name: "Door1", Type: domain.Motion},
		},
	}

	doc := FromSnapshot(want)
	require.Equal(t, "PENDING_ALARM", doc.GetFields()[FieldAlarmStatus].GetStringValue())
	require.Equal(t, "Armed - Away", doc.GetFields()[FieldArmingDescription].GetStringValue())

	got, err := ToSnapshot(doc)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// TestToSnapshot_Defaults ensures an empty document is the initial state.
func TestToSnapshot_Defaults(t *testing.T) {
	t.Parallel()

	got, err := ToSnapshot(new(structpb.Struct))
	require.NoError(t, err)
	require.Equal(t, domain.NoAlarm, got.AlarmStatus)
	require.Equal(t, domain.Disarmed, got.ArmingStatus)
	require.Empty(t, got.Sensors)
}

// TestToSnapshot_Rejects covers unknown statuses and malformed sensors.
func TestToSnapshot_Rejects(t *testing.T) {
	t.Parallel()

	doc, err := structpb.NewStruct(map[string]any{FieldAlarmStatus: "SIREN"})
	require.NoError(t, err)

	_, err = ToSnapshot(doc)
	require.ErrorIs(t, err, domain.ErrUnknownValue)

	doc, err = structpb.NewStruct(map[string]any{FieldSensors: []any{"Door1"}})
	require.NoError(t, err)

	_, err = ToSnapshot(doc)
	require.ErrorIs(t, err, ErrMalformedDocument)

	doc, err = structpb.NewStruct(map[string]any{
		FieldSensors: []any{map[string]any{FieldType: "DOOR"}},
	})
	require.NoError(t, err)

	_, err = ToSnapshot(doc)
	require.ErrorIs(t, err, ErrMalformedDocument)
}

// TestToSensor parses activation and type.
func TestToSensor(t *testing.T) {
	t.Parallel()

	doc, err := structpb.NewStruct(map[string]any{
		FieldName:   "Hall",
		FieldType:   "motion",
		FieldActive: true,
	})
	require.NoError(t, err)

	sensor, err := ToSensor(doc)
	require.NoError(t, err)
	require.Equal(t, domain.Sensor{Name: "Hall", Type: domain.Motion, Active: true}, sensor)

	_, err = ToSensor(nil)
	require.ErrorIs(t, err, ErrMalformedDocument)
}
