package state

import (
	"context"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Store persists the alarm status, the arming status and the known sensors.
type Store interface {
	AlarmStatus(ctx context.Context) (domain.AlarmStatus, error)
	SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error
	ArmingStatus(ctx context.Context) (domain.ArmingStatus, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error
	// Sensors returns every known sensor ordered by name, then type.
	Sensors(ctx context.Context) ([]domain.Sensor, error)
	AddSensor(ctx context.Context, sensor domain.Sensor) error
	// RemoveSensor forgets the sensor with the same key. Unknown sensors are ignored.
	RemoveSensor(ctx context.Context, sensor domain.Sensor) error
	// UpdateSensor persists the activation flag, adding the sensor when it is unknown.
	UpdateSensor(ctx context.Context, sensor domain.Sensor) error
}
