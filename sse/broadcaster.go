package sse

// Broadcaster is the publishing side of the hub. Event producers (the
// audit dispatcher's feed sink) depend on this abstraction rather than a
// concrete Hub.
type Broadcaster interface {
	// BroadcastToPattern sends data to all clients matching the given pattern.
	// Pattern uses glob-style matching (e.g. "events:*" or "events:3f2a").
	BroadcastToPattern(pattern string, data []byte)
}
