// Package ws implements the WebSocket hub for pwstrength-server.
//
// Hub manages a set of connected clients and broadcasts the live benchmark
// history to all of them on a configurable interval (server.broadcast_interval).
//
// New(history, interval) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker. It blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the current
// history immediately on connect, then streams updates on each tick.
//
// Message format sent to clients:
//
//	{
//	  "event": "history",
//	  "data":  [ /* same entries as GET /api/v1/benchmarks "reports" */ ]
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at /ws/stream by the server.
package ws
