package state

import (
	"context"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// MemoryStore keeps the state in process memory.
type MemoryStore struct {
	// alarmStatus is the current threat level.
	alarmStatus domain.AlarmStatus
	// armingStatus is the current monitoring mode.
	armingStatus domain.ArmingStatus
	// sensors maps sensor identity to the activation flag.
	sensors map[domain.SensorKey]bool
	// mu protects every field above.
	mu sync.RWMutex
}

// NewMemoryStore creates a store seeded with the given snapshot, or the initial state if nil.
func NewMemoryStore(initial *domain.Snapshot) *MemoryStore {
	s := &MemoryStore{
		sensors: make(map[domain.SensorKey]bool),
	}

	if initial != nil {
		s.alarmStatus = initial.AlarmStatus
		s.armingStatus = initial.ArmingStatus

		for _, sensor := range initial.Sensors {
			s.sensors[sensor.Key()] = sensor.Active
		}
	}

	return s
}

// AlarmStatus returns the stored alarm status.
func (s *MemoryStore) AlarmStatus(context.Context) (domain.AlarmStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.alarmStatus, nil
}

// SetAlarmStatus stores the alarm status.
func (s *MemoryStore) SetAlarmStatus(_ context.Context, status domain.AlarmStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alarmStatus = status

	return nil
}

// ArmingStatus returns the stored arming status.
func (s *MemoryStore) ArmingStatus(context.Context) (domain.ArmingStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.armingStatus, nil
}

// SetArmingStatus stores the arming status.
func (s *MemoryStore) SetArmingStatus(_ context.Context, status domain.ArmingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.armingStatus = status

	return nil
}

// Sensors returns a sorted copy of the sensor set.
func (s *MemoryStore) Sensors(context.Context) ([]domain.Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sensors := make([]domain.Sensor, 0, len(s.sensors))
	for key, active := range s.sensors {
		sensors = append(sensors, domain.Sensor{
			Name:   key.Name,
			Type:   key.Type,
			Active: active,
		})
	}

	domain.SortSensors(sensors)

	return sensors, nil
}

// AddSensor stores the sensor, replacing one with the same key.
func (s *MemoryStore) AddSensor(_ context.Context, sensor domain.Sensor) error {
	if err := sensor.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sensors[sensor.Key()] = sensor.Active

	return nil
}

// RemoveSensor deletes the sensor with the same key.
func (s *MemoryStore) RemoveSensor(_ context.Context, sensor domain.Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sensors, sensor.Key())

	return nil
}

// UpdateSensor stores the activation flag of the sensor.
func (s *MemoryStore) UpdateSensor(ctx context.Context, sensor domain.Sensor) error {
	return s.AddSensor(ctx, sensor)
}
