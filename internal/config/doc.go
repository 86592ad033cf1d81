// Package config defines the YAML settings of the catpoint binaries and
// provides helpers to load, validate and save them.
//
// Config carries the gRPC server address, the state store backend, the image
// classifier and the optional MQTT bridge. Validate fills defaults in place.
package config
