package security

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/catpoint/internal/classifier"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/repository/state"
)

// CatConfidenceThreshold is the confidence, in percent, the classifier must reach.
const CatConfidenceThreshold float32 = 50.0

var (
	// ErrInvalidArmingStatus is returned for arming statuses outside the enumeration.
	ErrInvalidArmingStatus = errors.New("invalid arming status")
	// ErrInvalidAlarmStatus is returned for alarm statuses outside the enumeration.
	ErrInvalidAlarmStatus = errors.New("invalid alarm status")
)

// Engine decides the alarm status of the premises.
type Engine struct {
	// store is the authoritative state.
	store state.Store
	// classifier detects cats in camera images.
	classifier classifier.Classifier
	// listeners are notified after successful writes.
	listeners []Listener
}

// NewEngine creates an engine on top of the given collaborators.
func NewEngine(store state.Store, imageClassifier classifier.Classifier, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		classifier: imageClassifier,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SetArmingStatus stores the arming mode.
// Arming resets every sensor to inactive; disarming resets the alarm.
// A failed write rolls back the writes already made by the call.
func (e *Engine) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidArmingStatus, status)
	}

	previous, err := e.store.ArmingStatus(ctx)
	if err != nil {
		return fmt.Errorf("read arming status: %w", err)
	}

	if status == domain.Disarmed {
		return e.disarm(ctx, previous)
	}

	sensors, err := e.store.Sensors(ctx)
	if err != nil {
		return fmt.Errorf("read sensors: %w", err)
	}

	active := make([]domain.Sensor, 0, len(sensors))

	for _, sensor := range sensors {
		if sensor.Active {
			active = append(active, sensor)
		}
	}

	for i, sensor := range active {
		sensor.Active = false
		if err = e.store.UpdateSensor(ctx, sensor); err != nil {
			err = fmt.Errorf("update sensor %s: %w", sensor.Key(), err)

			return errors.Join(err, e.restoreSensors(ctx, active[:i]))
		}
	}

	if err = e.store.SetArmingStatus(ctx, status); err != nil {
		err = fmt.Errorf("write arming status: %w", err)

		return errors.Join(err, e.restoreSensors(ctx, active))
	}

	e.armingChanged(ctx, status)

	for _, sensor := range active {
		sensor.Active = false
		e.sensorChanged(ctx, sensor)
	}

	return nil
}

// disarm writes DISARMED and NO_ALARM, restoring the previous arming status if the alarm write fails.
func (e *Engine) disarm(ctx context.Context, previous domain.ArmingStatus) error {
	if err := e.store.SetArmingStatus(ctx, domain.Disarmed); err != nil {
		return fmt.Errorf("write arming status: %w", err)
	}

	if err := e.store.SetAlarmStatus(ctx, domain.NoAlarm); err != nil {
		err = fmt.Errorf("write alarm status: %w", err)

		if rollbackErr := e.store.SetArmingStatus(ctx, previous); rollbackErr != nil {
			err = errors.Join(err, fmt.Errorf("roll back arming status: %w", rollbackErr))
		}

		return err
	}

	e.armingChanged(ctx, domain.Disarmed)
	e.alarmChanged(ctx, domain.NoAlarm)

	return nil
}

// ChangeSensorActivationStatus sets the activation of a sensor and escalates or
// relaxes the alarm accordingly. Rules are evaluated against the alarm status
// read before the sensor is written, in this order:
//
//  1. ALARM is never changed by sensors.
//  2. inactive -> active while armed: NO_ALARM becomes PENDING_ALARM, PENDING_ALARM becomes ALARM.
//  3. active -> inactive: PENDING_ALARM becomes NO_ALARM once no sensor is active.
//  4. an unchanged value changes nothing.
//
// The sensor write is undone when the alarm write fails, so a retry sees the same transition.
func (e *Engine) ChangeSensorActivationStatus(ctx context.Context, sensor domain.Sensor, active bool) error {
	if err := sensor.Validate(); err != nil {
		return err
	}

	alarmStatus, err := e.store.AlarmStatus(ctx)
	if err != nil {
		return fmt.Errorf("read alarm status: %w", err)
	}

	armingStatus, err := e.store.ArmingStatus(ctx)
	if err != nil {
		return fmt.Errorf("read arming status: %w", err)
	}

	sensors, err := e.store.Sensors(ctx)
	if err != nil {
		return fmt.Errorf("read sensors: %w", err)
	}

	stored, known := domain.Find(sensors, sensor.Key())

	wasActive := sensor.Active
	if known {
		wasActive = stored.Active
	}

	next := sensorTransition(alarmStatus, armingStatus, wasActive, active, sensors, sensor.Key())

	sensor.Active = active
	if err = e.store.UpdateSensor(ctx, sensor); err != nil {
		return fmt.Errorf("update sensor %s: %w", sensor.Key(), err)
	}

	if next != alarmStatus {
		if err = e.store.SetAlarmStatus(ctx, next); err != nil {
			err = fmt.Errorf("write alarm status: %w", err)

			if !known {
				return errors.Join(err, e.forgetSensor(ctx, sensor))
			}

			return errors.Join(err, e.restoreSensors(ctx, []domain.Sensor{stored}))
		}
	}

	e.sensorChanged(ctx, sensor)

	if next != alarmStatus {
		e.alarmChanged(ctx, next)
	}

	return nil
}

// ProcessImage classifies a camera image and updates the alarm.
func (e *Engine) ProcessImage(ctx context.Context, image domain.Image) error {
	catDetected, err := e.classifier.ImageContainsCat(ctx, image, CatConfidenceThreshold)
	if err != nil {
		return fmt.Errorf("classify image: %w", err)
	}

	logger.InfoKV(ctx, "Image processed", "cat_detected", catDetected)
	e.notify(func(l Listener) { l.CatDetected(ctx, catDetected) })

	if !catDetected {
		sensors, err := e.store.Sensors(ctx)
		if err != nil {
			return fmt.Errorf("read sensors: %w", err)
		}

		if domain.AnyActive(sensors) {
			return nil
		}

		return e.SetAlarmStatus(ctx, domain.NoAlarm)
	}

	armingStatus, err := e.store.ArmingStatus(ctx)
	if err != nil {
		return fmt.Errorf("read arming status: %w", err)
	}

	if armingStatus != domain.ArmedHome {
		return nil
	}

	return e.SetAlarmStatus(ctx, domain.Alarm)
}

// SetAlarmStatus stores the alarm status. It is how an alarm is cleared explicitly.
func (e *Engine) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidAlarmStatus, status)
	}

	if err := e.store.SetAlarmStatus(ctx, status); err != nil {
		return fmt.Errorf("write alarm status: %w", err)
	}

	e.alarmChanged(ctx, status)

	return nil
}

// AlarmStatus returns the stored alarm status.
func (e *Engine) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	return e.store.AlarmStatus(ctx)
}

// ArmingStatus returns the stored arming status.
func (e *Engine) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	return e.store.ArmingStatus(ctx)
}

// Sensors returns every known sensor.
func (e *Engine) Sensors(ctx context.Context) ([]domain.Sensor, error) {
	return e.store.Sensors(ctx)
}

// AddSensor registers a sensor.
func (e *Engine) AddSensor(ctx context.Context, sensor domain.Sensor) error {
	if err := sensor.Validate(); err != nil {
		return err
	}

	if err := e.store.AddSensor(ctx, sensor); err != nil {
		return fmt.Errorf("add sensor %s: %w", sensor.Key(), err)
	}

	logger.InfoKV(ctx, "Sensor added", "sensor", sensor.Key().String(), "active", sensor.Active)
	e.notify(func(l Listener) { l.SensorStatusChanged(ctx, sensor) })

	return nil
}

// RemoveSensor forgets a sensor.
func (e *Engine) RemoveSensor(ctx context.Context, sensor domain.Sensor) error {
	if err := e.store.RemoveSensor(ctx, sensor); err != nil {
		return fmt.Errorf("remove sensor %s: %w", sensor.Key(), err)
	}

	logger.InfoKV(ctx, "Sensor removed", "sensor", sensor.Key().String())
	e.notify(func(l Listener) { l.SensorRemoved(ctx, sensor.Key()) })

	return nil
}

// Snapshot reads the full state.
func (e *Engine) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	alarmStatus, err := e.store.AlarmStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("read alarm status: %w", err)
	}

	armingStatus, err := e.store.ArmingStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("read arming status: %w", err)
	}

	sensors, err := e.store.Sensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sensors: %w", err)
	}

	return &domain.Snapshot{
		AlarmStatus:  alarmStatus,
		ArmingStatus: armingStatus,
		Sensors:      sensors,
	}, nil
}

// sensorTransition returns the alarm status after a sensor changes from wasActive to active.
// sensors is the set read before the write; the changed sensor is excluded from it.
func sensorTransition(
	alarmStatus domain.AlarmStatus,
	armingStatus domain.ArmingStatus,
	wasActive, active bool,
	sensors []domain.Sensor,
	changed domain.SensorKey,
) domain.AlarmStatus {
	switch {
	case alarmStatus == domain.Alarm:
		return alarmStatus
	case !wasActive && active:
		if !armingStatus.IsArmed() {
			return alarmStatus
		}

		if alarmStatus == domain.NoAlarm {
			return domain.PendingAlarm
		}

		return domain.Alarm
	case wasActive && !active:
		if alarmStatus != domain.PendingAlarm {
			return alarmStatus
		}

		for _, sensor := range sensors {
			if sensor.Active && sensor.Key() != changed {
				return alarmStatus
			}
		}

		return domain.NoAlarm
	default:
		return alarmStatus
	}
}

// restoreSensors writes back sensors as they were before the call.
func (e *Engine) restoreSensors(ctx context.Context, sensors []domain.Sensor) error {
	var errs []error

	for _, sensor := range sensors {
		if err := e.store.UpdateSensor(ctx, sensor); err != nil {
			errs = append(errs, fmt.Errorf("roll back sensor %s: %w", sensor.Key(), err))
		}
	}

	if len(errs) > 0 {
		logger.ErrorKV(ctx, "Rollback incomplete", "error", errors.Join(errs...))
	}

	return errors.Join(errs...)
}

// forgetSensor removes a sensor the call itself created.
func (e *Engine) forgetSensor(ctx context.Context, sensor domain.Sensor) error {
	if err := e.store.RemoveSensor(ctx, sensor); err != nil {
		logger.ErrorKV(ctx, "Rollback incomplete", "sensor", sensor.Key().String(), "error", err)

		return fmt.Errorf("roll back sensor %s: %w", sensor.Key(), err)
	}

	return nil
}

func (e *Engine) alarmChanged(ctx context.Context, status domain.AlarmStatus) {
	logger.InfoKV(ctx, "Alarm status changed", "alarm_status", status)
	e.notify(func(l Listener) { l.AlarmStatusChanged(ctx, status) })
}

func (e *Engine) armingChanged(ctx context.Context, status domain.ArmingStatus) {
	logger.InfoKV(ctx, "Arming status changed", "arming_status", status)
	e.notify(func(l Listener) { l.ArmingStatusChanged(ctx, status) })
}

func (e *Engine) sensorChanged(ctx context.Context, sensor domain.Sensor) {
	logger.DebugKV(ctx, "Sensor updated", "sensor", sensor.Key().String(), "active", sensor.Active)
	e.notify(func(l Listener) { l.SensorStatusChanged(ctx, sensor) })
}

func (e *Engine) notify(fn func(Listener)) {
	for _, l := range e.listeners {
		fn(l)
	}
}
