package state

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

var errTestDatabase = errors.New("connection reset")

func setupMockPostgresStore(t *testing.T) (sqlmock.Sqlmock, *PostgresStore) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return mock, NewPostgresStore(db)
}

// TestPostgresStore_Migrate creates both tables.
func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()

	mock, store := setupMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS security_status`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS security_sensors`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore_Statuses reads the status row and defaults when it is missing.
func TestPostgresStore_Statuses(t *testing.T) {
	t.Parallel()

	mock, store := setupMockPostgresStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT alarm_status, arming_status FROM security_status`).
		WillReturnError(sql.ErrNoRows)

	alarmStatus, err := store.AlarmStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.NoAlarm, alarmStatus)

	mock.ExpectQuery(`SELECT alarm_status, arming_status FROM security_status`).
		WillReturnRows(sqlmock.NewRows([]string{"alarm_status", "arming_status"}).
			AddRow("PENDING_ALARM", "ARMED_HOME"))

	armingStatus, err := store.ArmingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedHome, armingStatus)

	mock.ExpectQuery(`SELECT alarm_status, arming_status FROM security_status`).
		WillReturnRows(sqlmock.NewRows([]string{"alarm_status", "arming_status"}).
			AddRow("SIREN", "ARMED_HOME"))

	_, err = store.AlarmStatus(ctx)
	require.ErrorIs(t, err, domain.ErrUnknownValue)

	mock.ExpectQuery(`SELECT alarm_status, arming_status FROM security_status`).
		WillReturnError(errTestDatabase)

	_, err = store.AlarmStatus(ctx)
	require.ErrorIs(t, err, errTestDatabase)

	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore_SetStatuses upserts only the column being changed.
func TestPostgresStore_SetStatuses(t *testing.T) {
	t.Parallel()

	mock, store := setupMockPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO security_status .* DO UPDATE SET alarm_status = EXCLUDED.alarm_status`).
		WithArgs("ALARM", "DISARMED").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetAlarmStatus(ctx, domain.Alarm))

	mock.ExpectExec(`INSERT INTO security_status .* DO UPDATE SET arming_status = EXCLUDED.arming_status`).
		WithArgs("NO_ALARM", "ARMED_AWAY").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetArmingStatus(ctx, domain.ArmedAway))

	mock.ExpectExec(`INSERT INTO security_status`).
		WillReturnError(errTestDatabase)

	require.ErrorIs(t, store.SetAlarmStatus(ctx, domain.NoAlarm), errTestDatabase)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore_Sensors scans, parses and orders sensors.
func TestPostgresStore_Sensors(t *testing.T) {
	t.Parallel()

	mock, store := setupMockPostgresStore(t)

	rows := sqlmock.NewRows([]string{"name", "sensor_type", "active"}).
		AddRow("Window1", "WINDOW", false).
		AddRow("Door1", "MOTION", true).
		AddRow("Door1", "DOOR", false)

	mock.ExpectQuery(`SELECT name, sensor_type, active FROM security_sensors`).WillReturnRows(rows)

	sensors, err := store.Sensors(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.Sensor{
		{Name: "Door1", Type: domain.Door},
		{Name: "Door1", Type: domain.Motion, Active: true},
		{Name: "Window1", Type: domain.Window},
	}, sensors)

	mock.ExpectQuery(`SELECT name, sensor_type, active FROM security_sensors`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "sensor_type", "active"}).AddRow("Kitchen", "SMOKE", true))

	_, err = store.Sensors(context.Background())
	require.ErrorIs(t, err, domain.ErrUnknownValue)

	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore_SensorWrites covers upsert, delete and validation.
func TestPostgresStore_SensorWrites(t *testing.T) {
	t.Parallel()

	mock, store := setupMockPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO security_sensors`).
		WithArgs("Door1", "DOOR", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateSensor(ctx, domain.Sensor{Name: "Door1", Type: domain.Door, Active: true}))

	mock.ExpectExec(`DELETE FROM security_sensors WHERE name = \$1 AND sensor_type = \$2`).
		WithArgs("Door1", "DOOR").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.RemoveSensor(ctx, domain.Sensor{Name: "Door1", Type: domain.Door}))

	// Validation happens before any query is issued.
	require.ErrorIs(t, store.AddSensor(ctx, domain.Sensor{Type: domain.Door}), domain.ErrInvalidSensor)

	require.NoError(t, mock.ExpectationsWereMet())
}
