package server

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/service/security"
)

// service serializes engine calls coming from every transport.
// It is unexported to keep the transports decoupled from the implementation.
type service struct {
	// engine applies the security rules.
	engine *security.Engine
	// mu ensures one decision is taken at a time.
	mu sync.Mutex
}

// newService wraps the engine.
func newService(engine *security.Engine) *service {
	return &service{engine: engine}
}

// Snapshot returns the current state.
func (s *service) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Debugf(ctx, "State requested")

	return s.engine.Snapshot(ctx)
}

// SetArmingStatus changes the arming mode.
func (s *service) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) (*domain.Snapshot, error) {
	return s.apply(ctx, func(ctx context.Context) error {
		return s.engine.SetArmingStatus(ctx, status)
	})
}

// ChangeSensorActivationStatus activates or deactivates a sensor.
func (s *service) ChangeSensorActivationStatus(
	ctx context.Context,
	sensor domain.Sensor,
	active bool,
) (*domain.Snapshot, error) {
	return s.apply(ctx, func(ctx context.Context) error {
		return s.engine.ChangeSensorActivationStatus(ctx, sensor, active)
	})
}

// ProcessImage classifies a camera frame.
func (s *service) ProcessImage(ctx context.Context, image domain.Image) (*domain.Snapshot, error) {
	return s.apply(ctx, func(ctx context.Context) error {
		return s.engine.ProcessImage(ctx, image)
	})
}

// AddSensor registers a sensor.
func (s *service) AddSensor(ctx context.Context, sensor domain.Sensor) (*domain.Snapshot, error) {
	return s.apply(ctx, func(ctx context.Context) error {
		return s.engine.AddSensor(ctx, sensor)
	})
}

// RemoveSensor forgets a sensor.
func (s *service) RemoveSensor(ctx context.Context, sensor domain.Sensor) (*domain.Snapshot, error) {
	return s.apply(ctx, func(ctx context.Context) error {
		return s.engine.RemoveSensor(ctx, sensor)
	})
}

// ClearAlarm resets the alarm status to NO_ALARM.
func (s *service) ClearAlarm(ctx context.Context) (*domain.Snapshot, error) {
	return s.apply(ctx, func(ctx context.Context) error {
		return s.engine.SetAlarmStatus(ctx, domain.NoAlarm)
	})
}

// apply runs a mutation and reads back the state under the same lock.
func (s *service) apply(ctx context.Context, mutate func(context.Context) error) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := mutate(ctx); err != nil {
		return nil, err
	}

	snapshot, err := s.engine.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	return snapshot, nil
}
