// Package constants holds tuning values shared across the server's internal packages.
package constants

import "time"

const (
	// DefaultBufferSize is the initial capacity of a connection's read/write Buffer.
	DefaultBufferSize = 1024

	// MaxRequestSize bounds how many unparsed bytes a connection's read buffer
	// may hold. Past it, Conn.Read returns ErrRequestTooLarge and the server
	// closes the connection without sending a response.
	MaxRequestSize = 64 * 1024

	// MaxConnections is the upper bound on concurrently open connections.
	MaxConnections = 65536

	// ReactorMaxEvents is the capacity of the reactor's event batch.
	ReactorMaxEvents = 1024

	// ListenBacklog is the backlog argument passed to listen(2).
	ListenBacklog = 5

	// WritevDrainThreshold: in edge-triggered mode (or when pending bytes exceed
	// this), HttpConn.Write keeps looping writev() instead of yielding back to
	// the reactor after one call.
	WritevDrainThreshold = 10240

	// LingerTimeout is the SO_LINGER duration used when optLinger is enabled.
	LingerTimeout = 10 * time.Second

	// KeepAliveMaxRequests/KeepAliveTimeout are reported in the keep-alive response header.
	KeepAliveMaxRequests = 6
	KeepAliveTimeout     = 120
)
