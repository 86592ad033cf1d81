package mqtt

import (
	"net/url"
	"strings"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

const (
	segmentArming = "arming"
	segmentSensor = "sensor"
	segmentCamera = "camera"
	segmentSet    = "set"
)

// Topics builds topic names under a common prefix.
type Topics struct {
	// prefix is prepended to every topic without a trailing slash.
	prefix string
}

// NewTopics creates a topic builder for the given prefix.
func NewTopics(prefix string) *Topics {
	return &Topics{prefix: strings.TrimRight(prefix, "/")}
}

// Prefix returns the topic prefix.
func (t *Topics) Prefix() string {
	return t.prefix
}

// Status is the availability topic.
func (t *Topics) Status() string {
	return t.join("status")
}

// Alarm carries alarm status events.
func (t *Topics) Alarm() string {
	return t.join("alarm")
}

// Arming carries the arming status.
func (t *Topics) Arming() string {
	return t.join(segmentArming)
}

// ArmingCommand accepts arming status changes.
func (t *Topics) ArmingCommand() string {
	return t.join(segmentArming, segmentSet)
}

// Sensor carries the state of one sensor.
func (t *Topics) Sensor(key domain.SensorKey) string {
	return t.join(segmentSensor, strings.ToLower(key.Type.String()), url.PathEscape(key.Name))
}

// SensorCommand accepts activation changes of one sensor.
func (t *Topics) SensorCommand(key domain.SensorKey) string {
	return t.Sensor(key) + "/" + segmentSet
}

// SensorCommandFilter matches every sensor command topic.
func (t *Topics) SensorCommandFilter() string {
	return t.join(segmentSensor, "+", "+", segmentSet)
}

// CameraImage accepts camera frames.
func (t *Topics) CameraImage() string {
	return t.join(segmentCamera, "image")
}

// CameraCat carries the last classification result.
func (t *Topics) CameraCat() string {
	return t.join(segmentCamera, "cat")
}

// ParseSensorCommand extracts the sensor key from a sensor command topic.
func (t *Topics) ParseSensorCommand(topic string) (domain.SensorKey, bool) {
	rest, found := strings.CutPrefix(topic, t.join(segmentSensor)+"/")
	if !found {
		return domain.SensorKey{}, false
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != segmentSet {
		return domain.SensorKey{}, false
	}

	sensorType, err := domain.ParseSensorType(parts[0])
	if err != nil {
		return domain.SensorKey{}, false
	}

	name, err := url.PathUnescape(parts[1])
	if err != nil || name == "" {
		return domain.SensorKey{}, false
	}

	return domain.SensorKey{Name: name, Type: sensorType}, true
}

func (t *Topics) join(segments ...string) string {
	if t.prefix == "" {
		return strings.Join(segments, "/")
	}

	return t.prefix + "/" + strings.Join(segments, "/")
}
