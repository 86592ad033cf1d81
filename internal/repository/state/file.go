package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// FileStore persists the state to a JSON file on disk.
// JSON is produced and consumed via protojson from the same state document
// the gRPC API returns, so a state file can be inspected with the CLI output in mind.
type FileStore struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu serializes read-modify-write cycles on the file.
	mu sync.Mutex
}

// NewFileStore creates a store that reads and writes JSON at the provided path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the state file.
func (s *FileStore) Path() string {
	return s.path
}

// AlarmStatus returns the stored alarm status.
func (s *FileStore) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	snapshot, err := s.read(ctx)
	if err != nil {
		return domain.NoAlarm, err
	}

	return snapshot.AlarmStatus, nil
}

// SetAlarmStatus stores the alarm status.
func (s *FileStore) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	return s.update(ctx, func(snapshot *domain.Snapshot) {
		snapshot.AlarmStatus = status
	})
}

// ArmingStatus returns the stored arming status.
func (s *FileStore) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	snapshot, err := s.read(ctx)
	if err != nil {
		return domain.Disarmed, err
	}

	return snapshot.ArmingStatus, nil
}

// SetArmingStatus stores the arming status.
func (s *FileStore) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	return s.update(ctx, func(snapshot *domain.Snapshot) {
		snapshot.ArmingStatus = status
	})
}

// Sensors returns the stored sensors ordered by name, then type.
func (s *FileStore) Sensors(ctx context.Context) ([]domain.Sensor, error) {
	snapshot, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	domain.SortSensors(snapshot.Sensors)

	return snapshot.Sensors, nil
}

// AddSensor stores the sensor, replacing one with the same key.
func (s *FileStore) AddSensor(ctx context.Context, sensor domain.Sensor) error {
	if err := sensor.Validate(); err != nil {
		return err
	}

	return s.update(ctx, func(snapshot *domain.Snapshot) {
		snapshot.Sensors = upsertSensor(snapshot.Sensors, sensor)
	})
}

// RemoveSensor deletes the sensor with the same key.
func (s *FileStore) RemoveSensor(ctx context.Context, sensor domain.Sensor) error {
	return s.update(ctx, func(snapshot *domain.Snapshot) {
		snapshot.Sensors = removeSensor(snapshot.Sensors, sensor.Key())
	})
}

// UpdateSensor stores the activation flag of the sensor.
func (s *FileStore) UpdateSensor(ctx context.Context, sensor domain.Sensor) error {
	return s.AddSensor(ctx, sensor)
}

// read loads the snapshot under the lock.
func (s *FileStore) read(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// update applies mutate to the stored snapshot and writes it back.
func (s *FileStore) update(ctx context.Context, mutate func(*domain.Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.load(ctx)
	if err != nil {
		return err
	}

	mutate(snapshot)

	return s.save(ctx, snapshot)
}

// load reads the state file. A missing file yields the initial state.
func (s *FileStore) load(context.Context) (*domain.Snapshot, error) {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return new(domain.Snapshot), nil
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc structpb.Struct
	if err = protojson.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	snapshot, err := pb.ToSnapshot(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return snapshot, nil
}

// save replaces the state file atomically so a failed write keeps the previous state.
func (s *FileStore) save(_ context.Context, snapshot *domain.Snapshot) error {
	domain.SortSensors(snapshot.Sensors)

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(pb.FromSnapshot(snapshot))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary state file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write state file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Chmod(tmpName, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

// upsertSensor replaces the sensor with the same key or appends it.
func upsertSensor(sensors []domain.Sensor, sensor domain.Sensor) []domain.Sensor {
	for i := range sensors {
		if sensors[i].Key() == sensor.Key() {
			sensors[i] = sensor

			return sensors
		}
	}

	return append(sensors, sensor)
}

// removeSensor drops the sensor with the given key.
func removeSensor(sensors []domain.Sensor, key domain.SensorKey) []domain.Sensor {
	return slices.DeleteFunc(sensors, func(s domain.Sensor) bool {
		return s.Key() == key
	})
}
