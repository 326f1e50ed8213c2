// Package lifecycle holds shared lifecycle constants for graceful shutdown.
package lifecycle

import "time"

// DefaultTimeout bounds shutdown work such as server drains and client
// closes.
const DefaultTimeout = 10 * time.Second
