package security

import (
	"cmp"
	"fmt"
	"slices"
)

// SensorType is the kind of detector.
type SensorType uint8

const (
	// Door is a door contact.
	Door SensorType = iota
	// Window is a window contact.
	Window
	// Motion is a motion detector.
	Motion
)

//nolint:gochecknoglobals // Lookup table for a closed enumeration.
var sensorTypeNames = [...]string{
	Door:   "DOOR",
	Window: "WINDOW",
	Motion: "MOTION",
}

// SensorTypes lists every sensor type in declaration order.
func SensorTypes() []SensorType {
	return []SensorType{Door, Window, Motion}
}

// Valid reports whether t is a declared sensor type.
func (t SensorType) Valid() bool {
	return int(t) < len(sensorTypeNames)
}

// String returns the canonical name, e.g. WINDOW.
func (t SensorType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("SensorType(%d)", t)
	}

	return sensorTypeNames[t]
}

// ParseSensorType converts a canonical name into a SensorType.
func ParseSensorType(value string) (SensorType, error) {
	idx, ok := lookup(sensorTypeNames[:], value)
	if !ok {
		return Door, fmt.Errorf("sensor type %q: %w", value, ErrUnknownValue)
	}

	return SensorType(idx), nil
}

// SensorKey identifies a sensor. Two sensors sharing a name but not a type are distinct.
type SensorKey struct {
	// Name is the user-given label of the sensor.
	Name string
	// Type is the kind of detector.
	Type SensorType
}

// String renders the key as TYPE:name.
func (k SensorKey) String() string {
	return k.Type.String() + ":" + k.Name
}

// Sensor is a binary door, window or motion detector.
type Sensor struct {
	// Name is the user-given label of the sensor.
	Name string
	// Type is the kind of detector.
	Type SensorType
	// Active is true while the sensor reports a trigger.
	Active bool
}

// Key returns the identity of the sensor.
func (s Sensor) Key() SensorKey {
	return SensorKey{
		Name: s.Name,
		Type: s.Type,
	}
}

// Validate checks that the sensor can be stored.
func (s Sensor) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("sensor name is empty: %w", ErrInvalidSensor)
	}

	if !s.Type.Valid() {
		return fmt.Errorf("sensor %q has type %s: %w", s.Name, s.Type, ErrInvalidSensor)
	}

	return nil
}

// AnyActive reports whether at least one sensor is active.
func AnyActive(sensors []Sensor) bool {
	return slices.ContainsFunc(sensors, func(s Sensor) bool {
		return s.Active
	})
}

// Find returns the sensor with the given key.
func Find(sensors []Sensor, key SensorKey) (Sensor, bool) {
	idx := slices.IndexFunc(sensors, func(s Sensor) bool {
		return s.Key() == key
	})
	if idx < 0 {
		return Sensor{}, false
	}

	return sensors[idx], true
}

// SortSensors orders sensors by name, then by type.
func SortSensors(sensors []Sensor) {
	slices.SortFunc(sensors, func(a, b Sensor) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Type, b.Type),
		)
	})
}
