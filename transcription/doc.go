// Package transcription turns captured audio into text through pluggable
// speech-to-text backends.
//
// It follows voicekit's provider pattern: backends register a Factory in a
// Registry, a Manager owns the initialized instances, and the Gateway runs
// every request through rate-limit admission, circuit breaking, retry and
// single failover before a result leaves the package.
//
// # Backends
//
//   - transcription/openai: OpenAI audio transcription API
//   - transcription/azure: Azure Speech REST API
//   - transcription/deepgram: Deepgram prerecorded API plus a live
//     websocket session
//
// # Usage
//
//	mgr := transcription.NewManager(&provider.PrioritySelector[transcription.Provider]{
//		Priority: []string{"openai", "deepgram"},
//	})
//	mgr.Register(openai.ProviderName, openai.Factory())
//	_ = mgr.Initialize(openai.ProviderName, map[string]any{"credentials": store})
//
//	gw, _ := transcription.NewGateway(transcription.GatewayConfig{
//		Settings:  settings.Transcription,
//		Providers: mgr,
//		Limiter:   limiter,
//		Engine:    engine,
//	})
//	result := gw.Transcribe(ctx, transcription.TranscriptionRequest{
//		Audio:  clip,
//		Format: audio.DefaultFormat(),
//	})
//
// Transcribe never returns an error: the TranscriptionResult carries either
// the text or a classified Failure the caller can act on.
package transcription
