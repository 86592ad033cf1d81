// Package security implements the gRPC transport of the security engine.
//
// It decodes well-known protobuf requests into domain values, calls the
// provided Service and answers every call with the resulting state document.
package security
