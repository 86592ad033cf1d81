package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

const (
	onlinePayload  = "online"
	offlinePayload = "offline"

	// defaultTimeout bounds broker round trips when Options.Timeout is unset.
	defaultTimeout = 5 * time.Second

	// disconnectQuiesce is the time in milliseconds given to in-flight work on disconnect.
	disconnectQuiesce = 250
)

// ErrInvalidPayload is returned for command payloads that cannot be parsed.
var ErrInvalidPayload = errors.New("invalid payload")

// Service is the subset of the security service driven by MQTT commands.
type Service interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) (*domain.Snapshot, error)
	ChangeSensorActivationStatus(ctx context.Context, sensor domain.Sensor, active bool) (*domain.Snapshot, error)
	ProcessImage(ctx context.Context, image domain.Image) (*domain.Snapshot, error)
}

// Publisher sends messages to the broker. paho.Client satisfies it.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
}

// Options configures the bridge.
type Options struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string
	// ClientID identifies the bridge at the broker.
	ClientID string
	// Username is the optional broker user.
	Username string
	// Password is the optional broker password.
	Password string
	// Prefix is prepended to every topic.
	Prefix string
	// QOS is the quality of service of subscriptions and publications.
	QOS byte
	// Retain marks state publications as retained.
	Retain bool
	// Timeout bounds broker round trips.
	Timeout time.Duration
}

// AlarmEvent is published on every alarm status change.
type AlarmEvent struct {
	// EventID uniquely identifies the event.
	EventID string `json:"event_id"`
	// Status is the new alarm status.
	Status string `json:"status"`
	// Description is the human readable status.
	Description string `json:"description"`
	// Timestamp is when the change was observed.
	Timestamp time.Time `json:"timestamp"`
}

// ArmingEvent is published on every arming status change.
type ArmingEvent struct {
	// Status is the new arming status.
	Status string `json:"status"`
	// Description is the human readable status.
	Description string `json:"description"`
	// Timestamp is when the change was observed.
	Timestamp time.Time `json:"timestamp"`
}

// SensorEvent is published on every sensor write.
type SensorEvent struct {
	// Name is the sensor name.
	Name string `json:"name"`
	// Type is the sensor type.
	Type string `json:"type"`
	// Active is the activation state.
	Active bool `json:"active"`
}

// CatEvent is published after every classification.
type CatEvent struct {
	// Detected reports whether a cat was seen.
	Detected bool `json:"detected"`
	// Timestamp is when the image was classified.
	Timestamp time.Time `json:"timestamp"`
}

// Bridge connects the security service to an MQTT broker.
// It also implements the engine listener that publishes state changes.
type Bridge struct {
	// opts holds the bridge configuration.
	opts Options
	// topics builds topic names.
	topics *Topics
	// service executes inbound commands.
	service Service
	// client is the broker connection, nil until Connect.
	client paho.Client
	// publisher sends outbound messages.
	publisher Publisher
	// ctx is handed to service calls made from broker callbacks.
	ctx context.Context //nolint:containedctx // Broker callbacks carry no context of their own.
	// now returns the current time.
	now func() time.Time
	// mu guards client and publisher.
	mu sync.RWMutex
}

// NewBridge creates a disconnected bridge.
func NewBridge(opts Options) *Bridge {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Bridge{
		opts:   opts,
		topics: NewTopics(opts.Prefix),
		ctx:    context.Background(),
		now:    time.Now,
	}
}

// Topics returns the topic builder of the bridge.
func (b *Bridge) Topics() *Topics {
	return b.topics
}

// Connect dials the broker and routes inbound commands to the service.
func (b *Bridge) Connect(ctx context.Context, service Service) error {
	ctx = logger.WithName(ctx, "mqtt")

	clientOptions := paho.NewClientOptions().
		AddBroker(b.opts.Broker).
		SetClientID(b.opts.ClientID).
		SetUsername(b.opts.Username).
		SetPassword(b.opts.Password).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectTimeout(b.opts.Timeout).
		SetWill(b.topics.Status(), offlinePayload, b.opts.QOS, true).
		SetOnConnectHandler(func(paho.Client) { b.onConnect(ctx) }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.WarnKV(ctx, "MQTT connection lost", "error", err)
		})

	client := paho.NewClient(clientOptions)

	b.mu.Lock()
	b.ctx = ctx
	b.service = service
	b.client = client
	b.publisher = client
	b.mu.Unlock()

	token := client.Connect()
	if !token.WaitTimeout(b.opts.Timeout) {
		return fmt.Errorf("connect to %s: timed out after %s", b.opts.Broker, b.opts.Timeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", b.opts.Broker, err)
	}

	logger.InfoKV(ctx, "Connected to MQTT broker", "broker", b.opts.Broker, "prefix", b.topics.Prefix())

	return nil
}

// Close publishes the offline status and disconnects.
func (b *Bridge) Close() {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()

	if client == nil || !client.IsConnected() {
		return
	}

	b.publish(b.topics.Status(), offlinePayload, true)
	client.Disconnect(disconnectQuiesce)
}

// AlarmStatusChanged publishes an alarm event.
func (b *Bridge) AlarmStatusChanged(_ context.Context, status domain.AlarmStatus) {
	b.publishJSON(b.topics.Alarm(), AlarmEvent{
		EventID:     uuid.NewString(),
		Status:      status.String(),
		Description: status.Description(),
		Timestamp:   b.now().UTC(),
	})
}

// ArmingStatusChanged publishes the new arming status.
func (b *Bridge) ArmingStatusChanged(_ context.Context, status domain.ArmingStatus) {
	b.publishJSON(b.topics.Arming(), ArmingEvent{
		Status:      status.String(),
		Description: status.Description(),
		Timestamp:   b.now().UTC(),
	})
}

// SensorStatusChanged publishes the sensor state.
func (b *Bridge) SensorStatusChanged(_ context.Context, sensor domain.Sensor) {
	b.publishJSON(b.topics.Sensor(sensor.Key()), sensorEvent(sensor))
}

// SensorRemoved clears the retained state of a removed sensor.
func (b *Bridge) SensorRemoved(_ context.Context, key domain.SensorKey) {
	b.publish(b.topics.Sensor(key), []byte{}, true)
}

// CatDetected publishes the classification result.
func (b *Bridge) CatDetected(_ context.Context, detected bool) {
	b.publishJSON(b.topics.CameraCat(), CatEvent{
		Detected:  detected,
		Timestamp: b.now().UTC(),
	})
}

func (b *Bridge) onConnect(ctx context.Context) {
	logger.Info(ctx, "MQTT connection established")

	b.publish(b.topics.Status(), onlinePayload, true)
	b.subscribe(ctx)
	b.publishSnapshot(ctx)
}

func (b *Bridge) subscribe(ctx context.Context) {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()

	filters := map[string]byte{
		b.topics.ArmingCommand():       b.opts.QOS,
		b.topics.SensorCommandFilter(): b.opts.QOS,
		b.topics.CameraImage():         b.opts.QOS,
	}

	token := client.SubscribeMultiple(filters, func(_ paho.Client, msg paho.Message) {
		b.handleMessage(msg.Topic(), msg.Payload())
	})

	if !token.WaitTimeout(b.opts.Timeout) || token.Error() != nil {
		logger.ErrorKV(ctx, "Failed to subscribe", "error", token.Error())

		return
	}

	logger.DebugKV(ctx, "Subscribed to command topics", "prefix", b.topics.Prefix())
}

// publishSnapshot publishes the full state so retained topics are fresh after a reconnect.
func (b *Bridge) publishSnapshot(ctx context.Context) {
	b.mu.RLock()
	service := b.service
	b.mu.RUnlock()

	if service == nil {
		return
	}

	snapshot, err := service.Snapshot(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to read state for publishing", "error", err)

		return
	}

	b.ArmingStatusChanged(ctx, snapshot.ArmingStatus)
	b.AlarmStatusChanged(ctx, snapshot.AlarmStatus)

	for _, sensor := range snapshot.Sensors {
		b.SensorStatusChanged(ctx, sensor)
	}
}

// handleMessage routes an inbound command. Failures are logged and dropped.
func (b *Bridge) handleMessage(topic string, payload []byte) {
	b.mu.RLock()
	ctx, service := b.ctx, b.service
	b.mu.RUnlock()

	ctx = logger.WithKV(ctx, "topic", topic)

	if service == nil {
		logger.Warnf(ctx, "Dropping message, bridge is not attached to a service")

		return
	}

	if err := b.route(ctx, service, topic, payload); err != nil {
		logger.WarnKV(ctx, "Dropping MQTT command", "error", err)
	}
}

func (b *Bridge) route(ctx context.Context, service Service, topic string, payload []byte) error {
	switch topic {
	case b.topics.ArmingCommand():
		status, err := domain.ParseArmingStatus(string(payload))
		if err != nil {
			return fmt.Errorf("parse arming status: %w", err)
		}

		_, err = service.SetArmingStatus(ctx, status)

		return err
	case b.topics.CameraImage():
		if len(payload) == 0 {
			return fmt.Errorf("empty image: %w", ErrInvalidPayload)
		}

		_, err := service.ProcessImage(ctx, domain.Image(payload))

		return err
	}

	key, ok := b.topics.ParseSensorCommand(topic)
	if !ok {
		return fmt.Errorf("unknown topic %q: %w", topic, ErrInvalidPayload)
	}

	active, err := ParseActivation(string(payload))
	if err != nil {
		return err
	}

	snapshot, err := service.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}

	sensor, found := domain.Find(snapshot.Sensors, key)
	if !found {
		sensor = domain.Sensor{Name: key.Name, Type: key.Type, Active: false}
	}

	_, err = service.ChangeSensorActivationStatus(ctx, sensor, active)

	return err
}

// ParseActivation parses a sensor command payload.
func ParseActivation(payload string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "on", "true", "active", "1":
		return true, nil
	case "off", "false", "inactive", "0":
		return false, nil
	default:
		return false, fmt.Errorf("activation %q: %w", payload, ErrInvalidPayload)
	}
}

func (b *Bridge) publishJSON(topic string, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		b.mu.RLock()
		ctx := b.ctx
		b.mu.RUnlock()

		logger.ErrorKV(ctx, "Failed to marshal MQTT message", "topic", topic, "error", err)

		return
	}

	b.publish(topic, payload, b.opts.Retain)
}

func (b *Bridge) publish(topic string, payload any, retain bool) {
	b.mu.RLock()
	ctx, publisher := b.ctx, b.publisher
	b.mu.RUnlock()

	if publisher == nil {
		return
	}

	token := publisher.Publish(topic, b.opts.QOS, retain, payload)
	if !token.WaitTimeout(b.opts.Timeout) {
		logger.WarnKV(ctx, "Timed out publishing MQTT message", "topic", topic)

		return
	}

	if err := token.Error(); err != nil {
		logger.ErrorKV(ctx, "Failed to publish MQTT message", "topic", topic, "error", err)

		return
	}

	logger.DebugKV(ctx, "Published MQTT message", "topic", topic)
}

func sensorEvent(sensor domain.Sensor) SensorEvent {
	return SensorEvent{
		Name:   sensor.Name,
		Type:   sensor.Type.String(),
		Active: sensor.Active,
	}
}
