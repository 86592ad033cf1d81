// Package security implements the alarm policy engine.
//
// Engine reconciles sensor activity, the arming mode and the camera's cat
// detection into a single alarm status. It reads and writes everything
// through a state.Store, never caches between calls, and holds no lock:
// callers that share an Engine between goroutines must serialize calls.
package security
