// Package mqtt bridges the security engine to an MQTT broker.
//
// Commands arrive on "<prefix>/arming/set", "<prefix>/sensor/<type>/<name>/set"
// and "<prefix>/camera/image". State changes are published as retained JSON
// documents, and "<prefix>/status" carries the online/offline availability.
package mqtt
