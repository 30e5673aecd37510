// Package store keeps recent benchmark reports, keyed by report ID.
//
// History is the interface the API and WebSocket hub read from. Store is the
// in-memory implementation with TTL eviction; RedisStore keeps reports in
// Redis with key expiry and a sorted-set index ordered by insert time.
package store
