package provider

// DuplexStream provides bidirectional communication over a single
// connection. Streaming transcription sessions implement it: Send pushes
// audio chunks, Recv yields finalized transcript segments.
type DuplexStream[I, O any] interface {
	// Send writes a value to the remote end.
	Send(I) error
	// Recv reads a value from the remote end. Returns io.EOF when closed.
	Recv() (O, error)
	// Close terminates the stream.
	Close() error
}
