// Package version exposes build metadata of the catpoint binaries.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
package version
