// Package config provides configuration loading and the Settings surface of
// the dictation layer.
//
// Configuration comes from a config.yml plus .env files found in standard
// locations, with environment variables taking precedence. The host shell
// loads everything in one call:
//
//	var settings config.Settings
//	if err := config.LoadConfig("voicekit", &settings); err != nil {
//	    return err
//	}
//	settings.ApplyDefaults()
//	if err := settings.Validate(); err != nil {
//	    return err
//	}
//
// Environment variables bind to nested keys by underscore splitting, so
// TRANSCRIPTION_PRIMARY overrides transcription.primary and
// SERVER_PORT overrides server.port.
package config
