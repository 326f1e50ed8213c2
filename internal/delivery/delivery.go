// Package delivery defines the common contract for inbound servers.
package delivery

import "context"

// Delivery is a long-running inbound surface (HTTP server, worker server).
// Each implementation registers its own shutdown hook; Serve blocks until
// the server stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
