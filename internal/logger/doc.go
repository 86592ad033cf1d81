// Package logger wraps zap with a process-wide sugared logger that travels in
// context.Context.
//
// Services attach a name or key-value pairs to the context (WithName, WithKV)
// and log through the package-level helpers (InfoKV, Errorf, ...), so every
// line carries the scope of the request that produced it.
package logger
