package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Register the postgres driver for database/sql.
	_ "github.com/lib/pq"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

const (
	createStatusTableQuery = `CREATE TABLE IF NOT EXISTS security_status (
	id            SMALLINT PRIMARY KEY,
	alarm_status  TEXT NOT NULL,
	arming_status TEXT NOT NULL
)`

	createSensorsTableQuery = `CREATE TABLE IF NOT EXISTS security_sensors (
	name        TEXT    NOT NULL,
	sensor_type TEXT    NOT NULL,
	active      BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (name, sensor_type)
)`

	selectStatusQuery = `SELECT alarm_status, arming_status FROM security_status WHERE id = 1`

	upsertAlarmStatusQuery = `INSERT INTO security_status (id, alarm_status, arming_status) VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET alarm_status = EXCLUDED.alarm_status`

	upsertArmingStatusQuery = `INSERT INTO security_status (id, alarm_status, arming_status) VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET arming_status = EXCLUDED.arming_status`

	selectSensorsQuery = `SELECT name, sensor_type, active FROM security_sensors`

	upsertSensorQuery = `INSERT INTO security_sensors (name, sensor_type, active) VALUES ($1, $2, $3)
ON CONFLICT (name, sensor_type) DO UPDATE SET active = EXCLUDED.active`

	deleteSensorQuery = `DELETE FROM security_sensors WHERE name = $1 AND sensor_type = $2`
)

// PostgresStore persists the state in two PostgreSQL tables: a single-row
// security_status table and a security_sensors table keyed by (name, sensor_type).
type PostgresStore struct {
	// db is the connection pool.
	db *sql.DB
}

// OpenPostgres opens and pings a connection pool for the given DSN.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// NewPostgresStore creates a store on top of an existing pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate creates the tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, query := range []string{createStatusTableQuery, createSensorsTableQuery} {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}

	return nil
}

// AlarmStatus returns the stored alarm status, NO_ALARM when unset.
func (s *PostgresStore) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	alarmStatus, _, err := s.statuses(ctx)
	if err != nil {
		return domain.NoAlarm, err
	}

	return alarmStatus, nil
}

// SetAlarmStatus stores the alarm status.
func (s *PostgresStore) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	_, err := s.db.ExecContext(ctx, upsertAlarmStatusQuery, status.String(), domain.Disarmed.String())
	if err != nil {
		return fmt.Errorf("write alarm status: %w", err)
	}

	return nil
}

// ArmingStatus returns the stored arming status, DISARMED when unset.
func (s *PostgresStore) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	_, armingStatus, err := s.statuses(ctx)
	if err != nil {
		return domain.Disarmed, err
	}

	return armingStatus, nil
}

// SetArmingStatus stores the arming status.
func (s *PostgresStore) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	_, err := s.db.ExecContext(ctx, upsertArmingStatusQuery, domain.NoAlarm.String(), status.String())
	if err != nil {
		return fmt.Errorf("write arming status: %w", err)
	}

	return nil
}

// Sensors returns the stored sensors ordered by name, then type.
func (s *PostgresStore) Sensors(ctx context.Context) ([]domain.Sensor, error) {
	rows, err := s.db.QueryContext(ctx, selectSensorsQuery)
	if err != nil {
		return nil, fmt.Errorf("query sensors: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var sensors []domain.Sensor

	for rows.Next() {
		var (
			sensor   domain.Sensor
			typeName string
		)

		if err = rows.Scan(&sensor.Name, &typeName, &sensor.Active); err != nil {
			return nil, fmt.Errorf("scan sensor: %w", err)
		}

		if sensor.Type, err = domain.ParseSensorType(typeName); err != nil {
			return nil, err
		}

		sensors = append(sensors, sensor)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensors: %w", err)
	}

	domain.SortSensors(sensors)

	return sensors, nil
}

// AddSensor stores the sensor, replacing one with the same key.
func (s *PostgresStore) AddSensor(ctx context.Context, sensor domain.Sensor) error {
	if err := sensor.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, upsertSensorQuery, sensor.Name, sensor.Type.String(), sensor.Active)
	if err != nil {
		return fmt.Errorf("write sensor %s: %w", sensor.Key(), err)
	}

	return nil
}

// RemoveSensor deletes the sensor with the same key.
func (s *PostgresStore) RemoveSensor(ctx context.Context, sensor domain.Sensor) error {
	_, err := s.db.ExecContext(ctx, deleteSensorQuery, sensor.Name, sensor.Type.String())
	if err != nil {
		return fmt.Errorf("remove sensor %s: %w", sensor.Key(), err)
	}

	return nil
}

// UpdateSensor stores the activation flag of the sensor.
func (s *PostgresStore) UpdateSensor(ctx context.Context, sensor domain.Sensor) error {
	return s.AddSensor(ctx, sensor)
}

// statuses reads the status row. A missing row is the initial state.
func (s *PostgresStore) statuses(ctx context.Context) (domain.AlarmStatus, domain.ArmingStatus, error) {
	var alarmName, armingName string

	err := s.db.QueryRowContext(ctx, selectStatusQuery).Scan(&alarmName, &armingName)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NoAlarm, domain.Disarmed, nil
	}

	if err != nil {
		return domain.NoAlarm, domain.Disarmed, fmt.Errorf("query status: %w", err)
	}

	alarmStatus, err := domain.ParseAlarmStatus(alarmName)
	if err != nil {
		return domain.NoAlarm, domain.Disarmed, err
	}

	armingStatus, err := domain.ParseArmingStatus(armingName)
	if err != nil {
		return domain.NoAlarm, domain.Disarmed, err
	}

	return alarmStatus, armingStatus, nil
}
