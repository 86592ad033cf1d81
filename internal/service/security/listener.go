package security

import (
	"context"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Listener is notified after a change has been written to the store.
type Listener interface {
	AlarmStatusChanged(ctx context.Context, status domain.AlarmStatus)
	ArmingStatusChanged(ctx context.Context, status domain.ArmingStatus)
	SensorStatusChanged(ctx context.Context, sensor domain.Sensor)
	SensorRemoved(ctx context.Context, key domain.SensorKey)
	CatDetected(ctx context.Context, detected bool)
}

// Option configures an Engine.
type Option func(*Engine)

// WithListener registers a listener. Listeners are called in registration order.
func WithListener(listener Listener) Option {
	return func(e *Engine) {
		if listener != nil {
			e.listeners = append(e.listeners, listener)
		}
	}
}
