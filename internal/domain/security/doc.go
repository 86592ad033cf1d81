// Package security contains the core domain types of the premises monitor.
//
// It defines the closed enumerations AlarmStatus, ArmingStatus and SensorType,
// the Sensor entity with its (name, type) identity, and the Snapshot read view
// shared by transports and stores.
package security
