// Package pipeline sequences dictation sessions and carries live
// transcript streams to delivery.
//
// Orchestrator is the entry point. Dictate runs one finite session in
// order: pull the captured clip from its audio source, hand it to the
// transcription gateway, hand the transcript to the injection
// dispatcher. DictateStream drains a live segment source and injects
// text as it arrives. The orchestrator owns only call order, the
// session deadline and the summary log line; everything resilient
// happens inside the collaborators it calls.
//
// The streaming flow is built on a small set of lazy, pull-based
// operators. No work happens until values are pulled through a
// terminal (Collect, ForEach); each stage pulls from the previous one
// on demand, so a slow consumer naturally holds back the producer. Buffer is the one operator that inserts a goroutine, used
// to keep a socket reader drained while an injection is in flight.
//
//	src := pipeline.FromFunc(func(context.Context) pipeline.Iterator[string] {
//	    return segmentsFrom(live)
//	})
//	clean := pipeline.Map(src, sanitize)
//	spoken := pipeline.Filter(clean, notEmpty)
//	batched := pipeline.Batch(pipeline.Buffer(spoken, 16), 3, 400*time.Millisecond)
//	err := pipeline.ForEach(ctx, batched, deliver)
//
// Operators never drop values: dictated text that reaches the stream
// is delivered or counted as a failed delivery, not silently skipped.
package pipeline
