package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// DefaultRedisKeyPrefix namespaces every key written by RedisStore.
const DefaultRedisKeyPrefix = "catpoint:"

// Redis keys relative to the prefix.
const (
	redisAlarmStatusKey  = "alarm_status"
	redisArmingStatusKey = "arming_status"
	redisSensorsKey      = "sensors"
)

// Sensor activation flags as stored in the sensors hash.
const (
	redisActive   = "1"
	redisInactive = "0"
)

// errMalformedSensorField is returned when a hash field is not TYPE:name.
var errMalformedSensorField = errors.New("malformed sensor field")

// RedisStore persists the state in Redis: two string keys for the statuses and
// one hash mapping TYPE:name to the activation flag.
type RedisStore struct {
	// client is the Redis connection pool.
	client *redis.Client
	// prefix is prepended to every key.
	prefix string
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// AlarmStatus returns the stored alarm status, NO_ALARM when unset.
func (s *RedisStore) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	value, err := s.get(ctx, redisAlarmStatusKey)
	if err != nil || value == "" {
		return domain.NoAlarm, err
	}

	return domain.ParseAlarmStatus(value)
}

// SetAlarmStatus stores the alarm status.
func (s *RedisStore) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	return s.set(ctx, redisAlarmStatusKey, status.String())
}

// ArmingStatus returns the stored arming status, DISARMED when unset.
func (s *RedisStore) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	value, err := s.get(ctx, redisArmingStatusKey)
	if err != nil || value == "" {
		return domain.Disarmed, err
	}

	return domain.ParseArmingStatus(value)
}

// SetArmingStatus stores the arming status.
func (s *RedisStore) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	return s.set(ctx, redisArmingStatusKey, status.String())
}

// Sensors returns the stored sensors ordered by name, then type.
func (s *RedisStore) Sensors(ctx context.Context) ([]domain.Sensor, error) {
	fields, err := s.client.HGetAll(ctx, s.key(redisSensorsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("read sensors: %w", err)
	}

	sensors := make([]domain.Sensor, 0, len(fields))

	for field, flag := range fields {
		sensor, err := parseSensorField(field)
		if err != nil {
			return nil, err
		}

		sensor.Active = flag == redisActive
		sensors = append(sensors, sensor)
	}

	domain.SortSensors(sensors)

	return sensors, nil
}

// AddSensor stores the sensor, replacing one with the same key.
func (s *RedisStore) AddSensor(ctx context.Context, sensor domain.Sensor) error {
	if err := sensor.Validate(); err != nil {
		return err
	}

	flag := redisInactive
	if sensor.Active {
		flag = redisActive
	}

	if err := s.client.HSet(ctx, s.key(redisSensorsKey), sensor.Key().String(), flag).Err(); err != nil {
		return fmt.Errorf("write sensor %s: %w", sensor.Key(), err)
	}

	return nil
}

// RemoveSensor deletes the sensor with the same key.
func (s *RedisStore) RemoveSensor(ctx context.Context, sensor domain.Sensor) error {
	if err := s.client.HDel(ctx, s.key(redisSensorsKey), sensor.Key().String()).Err(); err != nil {
		return fmt.Errorf("remove sensor %s: %w", sensor.Key(), err)
	}

	return nil
}

// UpdateSensor stores the activation flag of the sensor.
func (s *RedisStore) UpdateSensor(ctx context.Context, sensor domain.Sensor) error {
	return s.AddSensor(ctx, sensor)
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) get(ctx context.Context, name string) (string, error) {
	value, err := s.client.Get(ctx, s.key(name)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("read %s: %w", name, err)
	default:
		return value, nil
	}
}

func (s *RedisStore) set(ctx context.Context, name, value string) error {
	if err := s.client.Set(ctx, s.key(name), value, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// parseSensorField splits a TYPE:name hash field.
func parseSensorField(field string) (domain.Sensor, error) {
	typeName, name, ok := strings.Cut(field, ":")
	if !ok || name == "" {
		return domain.Sensor{}, fmt.Errorf("%q: %w", field, errMalformedSensorField)
	}

	sensorType, err := domain.ParseSensorType(typeName)
	if err != nil {
		return domain.Sensor{}, fmt.Errorf("%q: %w", field, err)
	}

	return domain.Sensor{
		Name: name,
		Type: sensorType,
	}, nil
}
