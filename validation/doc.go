// Package validation provides input validation for configuration and
// request payloads.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation
// covers the Settings tree; the fluent validator covers values assembled
// at runtime, like audio formats.
//
// # Struct Tag Validation
//
//	type ProviderSettings struct {
//	    Endpoint string `validate:"omitempty,url"`
//	    Timeout  time.Duration
//	}
//	err := validation.Validate(settings)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("provider", name)
//	v.MultipleOf("clip_bytes", len(clip), format.BytesPerFrame())
//	err := v.Validate()
package validation
