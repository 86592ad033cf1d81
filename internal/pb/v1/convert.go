package pb

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Field names of the state and sensor documents.
const (
	FieldAlarmStatus       = "alarm_status"
	FieldAlarmDescription  = "alarm_description"
	FieldArmingStatus      = "arming_status"
	FieldArmingDescription = "arming_description"
	FieldSensors           = "sensors"
	FieldName              = "name"
	FieldType              = "type"
	FieldActive            = "active"
)

// ErrMalformedDocument is returned when a document misses a required field.
var ErrMalformedDocument = errors.New("malformed document")

// FromSensor converts a sensor into its wire document.
func FromSensor(sensor domain.Sensor) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldName:   structpb.NewStringValue(sensor.Name),
			FieldType:   structpb.NewStringValue(sensor.Type.String()),
			FieldActive: structpb.NewBoolValue(sensor.Active),
		},
	}
}

// ToSensor parses a sensor document. A missing active field means inactive.
func ToSensor(doc *structpb.Struct) (domain.Sensor, error) {
	fields := doc.GetFields()

	name := fields[FieldName].GetStringValue()
	if name == "" {
		return domain.Sensor{}, fmt.Errorf("sensor %s: %w", FieldName, ErrMalformedDocument)
	}

	sensorType, err := domain.ParseSensorType(fields[FieldType].GetStringValue())
	if err != nil {
		return domain.Sensor{}, err
	}

	return domain.Sensor{
		Name:   name,
		Type:   sensorType,
		Active: fields[FieldActive].GetBoolValue(),
	}, nil
}

// FromSnapshot converts a state snapshot into its wire document.
func FromSnapshot(snapshot *domain.Snapshot) *structpb.Struct {
	if snapshot == nil {
		snapshot = new(domain.Snapshot)
	}

	sensors := make([]*structpb.Value, 0, len(snapshot.Sensors))
	for _, sensor := range snapshot.Sensors {
		sensors = append(sensors, structpb.NewStructValue(FromSensor(sensor)))
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldAlarmStatus:       structpb.NewStringValue(snapshot.AlarmStatus.String()),
			FieldAlarmDescription:  structpb.NewStringValue(snapshot.AlarmStatus.Description()),
			FieldArmingStatus:      structpb.NewStringValue(snapshot.ArmingStatus.String()),
			FieldArmingDescription: structpb.NewStringValue(snapshot.ArmingStatus.Description()),
			FieldSensors:           structpb.NewListValue(&structpb.ListValue{Values: sensors}),
		},
	}
}

// ToSnapshot parses a state document. Missing statuses default to NO_ALARM and DISARMED.
func ToSnapshot(doc *structpb.Struct) (*domain.Snapshot, error) {
	var (
		fields   = doc.GetFields()
		snapshot = new(domain.Snapshot)
		err      error
	)

	if value := fields[FieldAlarmStatus].GetStringValue(); value != "" {
		if snapshot.AlarmStatus, err = domain.ParseAlarmStatus(value); err != nil {
			return nil, err
		}
	}

	if value := fields[FieldArmingStatus].GetStringValue(); value != "" {
		if snapshot.ArmingStatus, err = domain.ParseArmingStatus(value); err != nil {
			return nil, err
		}
	}

	values := fields[FieldSensors].GetListValue().GetValues()
	snapshot.Sensors = make([]domain.Sensor, 0, len(values))

	for i, value := range values {
		sensorDoc := value.GetStructValue()
		if sensorDoc == nil {
			return nil, fmt.Errorf("%s[%d] is not an object: %w", FieldSensors, i, ErrMalformedDocument)
		}

		sensor, err := ToSensor(sensorDoc)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", FieldSensors, i, err)
		}

		snapshot.Sensors = append(snapshot.Sensors, sensor)
	}

	return snapshot, nil
}
