// Package observability provides OpenTelemetry tracing and metrics for the
// dictation pipeline.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("voicekit"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanTranscription)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("voicekit"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("voicekit"))
//	metrics.RecordTranscriptionEnd(ctx, "openai", "ok", duration)
//	metrics.RecordRateLimitRejected(ctx, "transcription:openai")
package observability
