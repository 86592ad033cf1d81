// Package client runs one catpoint CLI command against the server.
//
// It connects to the catpoint server, performs the requested operation,
// retries while the server is unreachable if asked to, and prints the
// resulting state.
package client
