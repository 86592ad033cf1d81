// Package pb describes the catpoint.v1.SecurityService wire contract.
//
// The service is carried entirely on protobuf well-known types, so there is no
// .proto file to generate from: this package holds the hand-maintained service
// descriptor, a typed client, and the conversions between domain values and
// the structpb documents exchanged on the wire and stored by the file store.
package pb
