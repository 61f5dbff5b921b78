// Package timeouts defines shared timeout constants for the governor
// processes.
package timeouts

import "time"

// GRPCDial caps the wait for a governor endpoint to report healthy.
const GRPCDial = 5 * time.Second

// GRPCRequest caps a single client call to the governor.
const GRPCRequest = 10 * time.Second

// Shutdown limits how long the server waits for in-flight calls during
// graceful stop.
const Shutdown = 5 * time.Second

// LockRelease bounds the release of a cross-process lock after the guarded
// operation returns.
const LockRelease = 2 * time.Second
