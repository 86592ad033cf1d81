package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

var errTestPublish = errors.New("test publish error")

// doneToken is an already completed paho token.
type doneToken struct {
	// err is returned by Error.
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)

	return done
}

// message is a recorded publication.
type message struct {
	topic    string
	retained bool
	payload  []byte
}

// fakePublisher records publications.
type fakePublisher struct {
	// err is reported by every token.
	err error
	// messages holds publications in order.
	messages []message
	// mu guards messages.
	mu sync.Mutex
}

func (p *fakePublisher) Publish(topic string, _ byte, retained bool, payload any) paho.Token {
	p.mu.Lock()
	defer p.mu.Unlock()

	var raw []byte

	switch v := payload.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	}

	p.messages = append(p.messages, message{topic: topic, retained: retained, payload: raw})

	return doneToken{err: p.err}
}

// fakeService records command calls.
type fakeService struct {
	// snapshot is returned by Snapshot.
	snapshot domain.Snapshot
	// arming is the last requested arming status.
	arming *domain.ArmingStatus
	// sensor is the last sensor passed to a change.
	sensor *domain.Sensor
	// active is the last requested activation.
	active bool
	// image is the last processed image.
	image domain.Image
}

func (f *fakeService) Snapshot(context.Context) (*domain.Snapshot, error) {
	return f.snapshot.Clone(), nil
}

func (f *fakeService) SetArmingStatus(_ context.Context, status domain.ArmingStatus) (*domain.Snapshot, error) {
	f.arming = &status

	return f.snapshot.Clone(), nil
}

func (f *fakeService) ChangeSensorActivationStatus(
	_ context.Context,
	sensor domain.Sensor,
	active bool,
) (*domain.Snapshot, error) {
	f.sensor, f.active = &sensor, active

	return f.snapshot.Clone(), nil
}

func (f *fakeService) ProcessImage(_ context.Context, image domain.Image) (*domain.Snapshot, error) {
	f.image = image

	return f.snapshot.Clone(), nil
}

func newTestBridge(service Service) (*Bridge, *fakePublisher) {
	publisher := new(fakePublisher)

	b := NewBridge(Options{Prefix: "home/catpoint/", Retain: true})
	b.service = service
	b.publisher = publisher
	b.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	return b, publisher
}

// TestTopics checks topic names and sensor command parsing.
func TestTopics(t *testing.T) {
	t.Parallel()

	topics := NewTopics("catpoint/")
	key := domain.SensorKey{Name: "Back door", Type: domain.Door}

	require.Equal(t, "catpoint/status", topics.Status())
	require.Equal(t, "catpoint/arming/set", topics.ArmingCommand())
	require.Equal(t, "catpoint/sensor/door/Back%20door", topics.Sensor(key))
	require.Equal(t, "catpoint/sensor/+/+/set", topics.SensorCommandFilter())

	parsed, ok := topics.ParseSensorCommand(topics.SensorCommand(key))
	require.True(t, ok)
	require.Equal(t, key, parsed)

	for _, topic := range []string{
		"catpoint/sensor/door/Back",
		"catpoint/sensor/garage/Back/set",
		"catpoint/sensor/door//set",
		"other/sensor/door/Back/set",
	} {
		_, ok = topics.ParseSensorCommand(topic)
		require.False(t, ok, topic)
	}
}

// TestParseActivation covers every accepted payload spelling.
func TestParseActivation(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"ON", "true", "Active", " 1 "} {
		active, err := ParseActivation(payload)
		require.NoError(t, err)
		require.True(t, active, payload)
	}

	for _, payload := range []string{"off", "FALSE", "inactive", "0"} {
		active, err := ParseActivation(payload)
		require.NoError(t, err)
		require.False(t, active, payload)
	}

	_, err := ParseActivation("maybe")
	require.ErrorIs(t, err, ErrInvalidPayload)
}

// TestBridge_Route dispatches commands to the service.
func TestBridge_Route(t *testing.T) {
	t.Parallel()

	known := domain.Sensor{Name: "Hall", Type: domain.Motion, Active: true}
	service := &fakeService{snapshot: domain.Snapshot{Sensors: []domain.Sensor{known}}}
	b, _ := newTestBridge(service)
	ctx := context.Background()
	topics := b.Topics()

	require.NoError(t, b.route(ctx, service, topics.ArmingCommand(), []byte("armed_away")))
	require.NotNil(t, service.arming)
	require.Equal(t, domain.ArmedAway, *service.arming)

	require.NoError(t, b.route(ctx, service, topics.SensorCommand(known.Key()), []byte("OFF")))
	require.Equal(t, known, *service.sensor)
	require.False(t, service.active)

	unknown := domain.SensorKey{Name: "Attic", Type: domain.Window}
	require.NoError(t, b.route(ctx, service, topics.SensorCommand(unknown), []byte("ON")))
	require.Equal(t, domain.Sensor{Name: "Attic", Type: domain.Window}, *service.sensor)
	require.True(t, service.active)

	require.NoError(t, b.route(ctx, service, topics.CameraImage(), []byte{0xff, 0xd8}))
	require.Equal(t, domain.Image{0xff, 0xd8}, service.image)
}

// TestBridge_RouteRejects ensures malformed commands never reach the service.
func TestBridge_RouteRejects(t *testing.T) {
	t.Parallel()

	service := new(fakeService)
	b, _ := newTestBridge(service)
	ctx := context.Background()
	topics := b.Topics()

	err := b.route(ctx, service, topics.ArmingCommand(), []byte("ARMED_MOON"))
	require.ErrorIs(t, err, domain.ErrUnknownValue)

	err = b.route(ctx, service, topics.CameraImage(), nil)
	require.ErrorIs(t, err, ErrInvalidPayload)

	err = b.route(ctx, service, topics.SensorCommand(domain.SensorKey{Name: "Hall", Type: domain.Door}), []byte("?"))
	require.ErrorIs(t, err, ErrInvalidPayload)

	err = b.route(ctx, service, "home/catpoint/unknown", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidPayload)

	require.Nil(t, service.arming)
	require.Nil(t, service.sensor)
	require.Nil(t, service.image)

	// handleMessage logs and drops failures.
	b.handleMessage("home/catpoint/unknown", []byte("x"))
}

// TestBridge_Listener publishes state changes as retained JSON documents.
func TestBridge_Listener(t *testing.T) {
	t.Parallel()

	b, publisher := newTestBridge(new(fakeService))
	ctx := context.Background()

	b.AlarmStatusChanged(ctx, domain.Alarm)
	b.ArmingStatusChanged(ctx, domain.ArmedHome)
	b.SensorStatusChanged(ctx, domain.Sensor{Name: "Front", Type: domain.Door, Active: true})
	b.CatDetected(ctx, true)

	require.Len(t, publisher.messages, 4)

	alarm := publisher.messages[0]
	require.Equal(t, "home/catpoint/alarm", alarm.topic)
	require.True(t, alarm.retained)

	var event AlarmEvent
	require.NoError(t, json.Unmarshal(alarm.payload, &event))
	require.Equal(t, "ALARM", event.Status)
	require.Equal(t, "Awooga!", event.Description)
	require.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), event.Timestamp)

	_, err := uuid.Parse(event.EventID)
	require.NoError(t, err)

	require.Equal(t, "home/catpoint/arming", publisher.messages[1].topic)
	require.JSONEq(t,
		`{"status":"ARMED_HOME","description":"Armed - At Home","timestamp":"2026-01-02T03:04:05Z"}`,
		string(publisher.messages[1].payload))

	require.Equal(t, "home/catpoint/sensor/door/Front", publisher.messages[2].topic)
	require.JSONEq(t, `{"name":"Front","type":"DOOR","active":true}`, string(publisher.messages[2].payload))

	require.Equal(t, "home/catpoint/camera/cat", publisher.messages[3].topic)
	require.JSONEq(t, `{"detected":true,"timestamp":"2026-01-02T03:04:05Z"}`, string(publisher.messages[3].payload))
}

// TestBridge_SensorRemoved publishes an empty retained payload on the sensor topic.
func TestBridge_SensorRemoved(t *testing.T) {
	t.Parallel()

	b, publisher := newTestBridge(new(fakeService))
	b.opts.Retain = false

	b.SensorRemoved(context.Background(), domain.SensorKey{Name: "Back door", Type: domain.Door})

	require.Len(t, publisher.messages, 1)
	require.Equal(t, "home/catpoint/sensor/door/Back%20door", publisher.messages[0].topic)
	require.True(t, publisher.messages[0].retained)
	require.Empty(t, publisher.messages[0].payload)
}

// TestBridge_PublishSnapshot republishes the whole state and tolerates broker errors.
func TestBridge_PublishSnapshot(t *testing.T) {
	t.Parallel()

	service := &fakeService{
		snapshot: domain.Snapshot{
			AlarmStatus:  domain.PendingAlarm,
			ArmingStatus: domain.ArmedAway,
			Sensors: []domain.Sensor{
				{Name: "Front", Type: domain.Door},
				{Name: "Hall", Type: domain.Motion, Active: true},
			},
		},
	}

	b, publisher := newTestBridge(service)
	publisher.err = errTestPublish

	b.publishSnapshot(context.Background())

	topics := make([]string, 0, len(publisher.messages))
	for _, m := range publisher.messages {
		topics = append(topics, m.topic)
	}

	require.Equal(t, []string{
		"home/catpoint/arming",
		"home/catpoint/alarm",
		"home/catpoint/sensor/door/Front",
		"home/catpoint/sensor/motion/Hall",
	}, topics)
}

// TestBridge_CloseWithoutConnect is a no-op.
func TestBridge_CloseWithoutConnect(t *testing.T) {
	t.Parallel()

	b := NewBridge(Options{})
	b.Close()
}
