package security

import (
	"errors"
	"fmt"
	"strings"
)

// AlarmStatus is the system-computed threat level of the premises.
type AlarmStatus uint8

const (
	// NoAlarm means nothing is wrong.
	NoAlarm AlarmStatus = iota
	// PendingAlarm means one triggering event was seen and a second one escalates to Alarm.
	PendingAlarm
	// Alarm means the alarm is triggered.
	Alarm
)

// ArmingStatus is the monitoring mode chosen by the user.
type ArmingStatus uint8

const (
	// Disarmed turns monitoring off.
	Disarmed ArmingStatus = iota
	// ArmedHome monitors while people are at home.
	ArmedHome
	// ArmedAway monitors while the premises are empty.
	ArmedAway
)

// ErrUnknownValue is returned when a string does not name a member of an enumeration.
var ErrUnknownValue = errors.New("unknown value")

//nolint:gochecknoglobals // Lookup tables for closed enumerations.
var (
	alarmStatusNames = [...]string{
		NoAlarm:      "NO_ALARM",
		PendingAlarm: "PENDING_ALARM",
		Alarm:        "ALARM",
	}
	alarmStatusDescriptions = [...]string{
		NoAlarm:      "Cool and Good",
		PendingAlarm: "I'm in Danger...",
		Alarm:        "Awooga!",
	}
	armingStatusNames = [...]string{
		Disarmed:  "DISARMED",
		ArmedHome: "ARMED_HOME",
		ArmedAway: "ARMED_AWAY",
	}
	armingStatusDescriptions = [...]string{
		Disarmed:  "Disarmed",
		ArmedHome: "Armed - At Home",
		ArmedAway: "Armed - Away",
	}
)

// AlarmStatuses lists every alarm status in declaration order.
func AlarmStatuses() []AlarmStatus {
	return []AlarmStatus{NoAlarm, PendingAlarm, Alarm}
}

// Valid reports whether s is a declared alarm status.
func (s AlarmStatus) Valid() bool {
	return int(s) < len(alarmStatusNames)
}

// String returns the canonical name, e.g. PENDING_ALARM.
func (s AlarmStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("AlarmStatus(%d)", s)
	}

	return alarmStatusNames[s]
}

// Description returns the human-readable text shown to users.
func (s AlarmStatus) Description() string {
	if !s.Valid() {
		return s.String()
	}

	return alarmStatusDescriptions[s]
}

// ParseAlarmStatus converts a canonical name into an AlarmStatus.
func ParseAlarmStatus(value string) (AlarmStatus, error) {
	idx, ok := lookup(alarmStatusNames[:], value)
	if !ok {
		return NoAlarm, fmt.Errorf("alarm status %q: %w", value, ErrUnknownValue)
	}

	return AlarmStatus(idx), nil
}

// ArmingStatuses lists every arming status in declaration order.
func ArmingStatuses() []ArmingStatus {
	return []ArmingStatus{Disarmed, ArmedHome, ArmedAway}
}

// Valid reports whether s is a declared arming status.
func (s ArmingStatus) Valid() bool {
	return int(s) < len(armingStatusNames)
}

// IsArmed reports whether sensors are monitored in this mode.
func (s ArmingStatus) IsArmed() bool {
	return s == ArmedHome || s == ArmedAway
}

// String returns the canonical name, e.g. ARMED_HOME.
func (s ArmingStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("ArmingStatus(%d)", s)
	}

	return armingStatusNames[s]
}

// Description returns the human-readable text shown to users.
func (s ArmingStatus) Description() string {
	if !s.Valid() {
		return s.String()
	}

	return armingStatusDescriptions[s]
}

// ParseArmingStatus converts a canonical name into an ArmingStatus.
func ParseArmingStatus(value string) (ArmingStatus, error) {
	idx, ok := lookup(armingStatusNames[:], value)
	if !ok {
		return Disarmed, fmt.Errorf("arming status %q: %w", value, ErrUnknownValue)
	}

	return ArmingStatus(idx), nil
}

// lookup finds value among names after normalizing case and separators.
func lookup(names []string, value string) (int, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	for i, name := range names {
		if name == normalized {
			return i, true
		}
	}

	return 0, false
}
