package security

import (
	"errors"
	"slices"
)

// ErrInvalidSensor is returned for sensors without a name or with an undeclared type.
var ErrInvalidSensor = errors.New("invalid sensor")

// Image is an opaque camera frame handed to the classifier.
type Image []byte

// Snapshot is the full monitoring state at one point in time.
type Snapshot struct {
	// AlarmStatus is the current threat level.
	AlarmStatus AlarmStatus
	// ArmingStatus is the current monitoring mode.
	ArmingStatus ArmingStatus
	// Sensors holds every known sensor.
	Sensors []Sensor
}

// Clone returns a copy that does not share the sensor slice.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	return &Snapshot{
		AlarmStatus:  s.AlarmStatus,
		ArmingStatus: s.ArmingStatus,
		Sensors:      slices.Clone(s.Sensors),
	}
}
