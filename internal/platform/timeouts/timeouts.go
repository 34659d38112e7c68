// Package timeouts defines shared timeout constants.
package timeouts

import "time"

// TelemetryShutdown limits how long a command waits for pending spans to
// flush on exit.
const TelemetryShutdown = 5 * time.Second
