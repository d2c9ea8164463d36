// Package logger provides structured logging for the dictation pipeline
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("transcription")
//	log.Info("provider selected", logger.Fields(logger.FieldProvider, "openai"))
package logger
