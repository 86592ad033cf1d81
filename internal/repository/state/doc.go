// Package state implements persistence of the monitoring state.
//
// Store is the contract the security engine depends on. Adapters keep the
// alarm status, the arming status and the sensor set in memory, in a JSON
// file, in Redis or in PostgreSQL. Every adapter is authoritative: reads always
// reflect the last committed write and nothing is cached between calls.
package state
