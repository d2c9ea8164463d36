// Package sse carries the control server's live event feed over
// Server-Sent Events.
//
// The audit dispatcher publishes dictation events (circuit transitions,
// rate limit denials, transcription and injection outcomes) as JSON; this
// package fans them out to however many local subscribers are attached to
// the feed endpoint.
//
// # Architecture
//
//   - Hub: central router owning the client set and broadcast loop
//   - Broadcaster: the narrow interface publishers depend on
//   - ServeSSE: HTTP handler body streaming one client's events
//
// # Usage
//
//	hub := sse.NewHub()
//	go hub.Run()
//	router.GET("/v1/events", func(c *gin.Context) {
//		sse.ServeSSE(hub, c.Writer, c.Request, "events:"+uuid.NewString())
//	})
package sse
