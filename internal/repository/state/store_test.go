package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// testStoreContract exercises the behavior every Store adapter must share.
func testStoreContract(t *testing.T, store Store) {
	t.Helper()

	ctx := context.Background()

	// Initial state.
	alarmStatus, err := store.AlarmStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.NoAlarm, alarmStatus)

	armingStatus, err := store.ArmingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Disarmed, armingStatus)

	sensors, err := store.Sensors(ctx)
	require.NoError(t, err)
	require.Empty(t, sensors)

	// Statuses are stored independently.
	require.NoError(t, store.SetArmingStatus(ctx, domain.ArmedAway))
	require.NoError(t, store.SetAlarmStatus(ctx, domain.PendingAlarm))

	alarmStatus, err = store.AlarmStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.PendingAlarm, alarmStatus)

	armingStatus, err = store.ArmingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedAway, armingStatus)

	// Same name with different types are distinct sensors.
	require.NoError(t, store.AddSensor(ctx, domain.Sensor{Name: "Window1", Type: domain.Window}))
	require.NoError(t, store.AddSensor(ctx, domain.Sensor{Name: "Door1", Type: domain.Motion, Active: true}))
	require.NoError(t, store.AddSensor(ctx, domain.Sensor{Name: "Door1", Type: domain.Door}))

	sensors, err = store.Sensors(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Sensor{
		{Name: "Door1", Type: domain.Door},
		{Name: "Door1", Type: domain.Motion, Active: true},
		{Name: "Window1", Type: domain.Window},
	}, sensors)

	// Update flips the flag and adds unknown sensors.
	require.NoError(t, store.UpdateSensor(ctx, domain.Sensor{Name: "Door1", Type: domain.Door, Active: true}))
	require.NoError(t, store.UpdateSensor(ctx, domain.Sensor{Name: "Hall", Type: domain.Motion, Active: true}))

	sensors, err = store.Sensors(ctx)
	require.NoError(t, err)
	require.Len(t, sensors, 4)

	door, ok := domain.Find(sensors, domain.SensorKey{Name: "Door1", Type: domain.Door})
	require.True(t, ok)
	require.True(t, door.Active)

	// Remove by key, unknown sensors are ignored.
	require.NoError(t, store.RemoveSensor(ctx, domain.Sensor{Name: "Door1", Type: domain.Motion}))
	require.NoError(t, store.RemoveSensor(ctx, domain.Sensor{Name: "Garage", Type: domain.Door}))

	sensors, err = store.Sensors(ctx)
	require.NoError(t, err)
	require.Len(t, sensors, 3)

	_, ok = domain.Find(sensors, domain.SensorKey{Name: "Door1", Type: domain.Motion})
	require.False(t, ok)

	// Invalid sensors are rejected.
	require.ErrorIs(t, store.AddSensor(ctx, domain.Sensor{Type: domain.Door}), domain.ErrInvalidSensor)
}

// TestMemoryStore runs the shared contract against MemoryStore.
func TestMemoryStore(t *testing.T) {
	t.Parallel()

	testStoreContract(t, NewMemoryStore(nil))
}

// TestMemoryStore_Seed verifies the initial snapshot is loaded.
func TestMemoryStore_Seed(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(&domain.Snapshot{
		AlarmStatus:  domain.Alarm,
		ArmingStatus: domain.ArmedHome,
		Sensors:      []domain.Sensor{{Name: "Door1", Type: domain.Door, Active: true}},
	})

	alarmStatus, err := store.AlarmStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.Alarm, alarmStatus)

	sensors, err := store.Sensors(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.Sensor{{Name: "Door1", Type: domain.Door, Active: true}}, sensors)
}

// TestFileStore runs the shared contract against FileStore.
func TestFileStore(t *testing.T) {
	t.Parallel()

	testStoreContract(t, NewFileStore(filepath.Join(t.TempDir(), "state.json")))
}

// TestFileStore_Persists ensures a second instance reads what the first one wrote.
func TestFileStore_Persists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	first := NewFileStore(path)
	require.NoError(t, first.SetArmingStatus(ctx, domain.ArmedHome))
	require.NoError(t, first.AddSensor(ctx, domain.Sensor{Name: "Door1", Type: domain.Door, Active: true}))

	_, err := os.Stat(path)
	require.NoError(t, err)

	second := NewFileStore(path)

	armingStatus, err := second.ArmingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedHome, armingStatus)

	sensors, err := second.Sensors(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Sensor{{Name: "Door1", Type: domain.Door, Active: true}}, sensors)

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestFileStore_Corrupt verifies decode errors surface and leave the file untouched.
func TestFileStore_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileStore(path)

	_, err := store.AlarmStatus(context.Background())
	require.Error(t, err)

	require.Error(t, store.SetAlarmStatus(context.Background(), domain.Alarm))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{not json", string(contents))
}

// TestRedisStore runs the shared contract against RedisStore backed by miniredis.
func TestRedisStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, "")
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.Ping(context.Background()))

	testStoreContract(t, store)

	// Keys live under the default prefix.
	value, err := mr.Get(DefaultRedisKeyPrefix + redisArmingStatusKey)
	require.NoError(t, err)
	require.Equal(t, "ARMED_AWAY", value)
	require.Equal(t, redisActive, mr.HGet(DefaultRedisKeyPrefix+redisSensorsKey, "DOOR:Door1"))
}

// TestRedisStore_MalformedField rejects hash fields written by something else.
func TestRedisStore_MalformedField(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, "test:")
	mr.HSet("test:"+redisSensorsKey, "garbage", redisActive)

	_, err := store.Sensors(context.Background())
	require.ErrorIs(t, err, errMalformedSensorField)

	mr.Del("test:" + redisSensorsKey)
	mr.HSet("test:"+redisSensorsKey, "SMOKE:Kitchen", redisActive)

	_, err = store.Sensors(context.Background())
	require.ErrorIs(t, err, domain.ErrUnknownValue)
}
