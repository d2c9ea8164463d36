// Package audit records notable pipeline events (circuit transitions, rate
// limit denials, transcription and injection outcomes) and fans them out to
// pluggable sinks without ever blocking the caller.
//
// Publishing is fire-and-forget: events go through a bounded queue and the
// oldest entry is dropped when the queue is full. A panicking sink is
// isolated so it cannot take down the dispatcher or starve other sinks.
//
// Usage:
//
//	d := audit.NewDispatcher(audit.DispatcherConfig{BufferSize: 256},
//		audit.NewLoggerSink(),
//		audit.NewSSESink(hub),
//	)
//	d.Start(ctx)
//	defer d.Stop(ctx)
//
//	d.Publish(audit.CircuitOpened("Transcription:openai", 5, 30*time.Second))
package audit
