// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client wrapper with timeouts that decodes the
// state documents returned by the catpoint server.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
