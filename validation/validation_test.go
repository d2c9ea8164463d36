package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("provider", "openai")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("provider", "")
	if !v2.HasErrors() {
		t.Error("expected error for empty required field")
	}

	v3 := New()
	v3.Required("provider", "   ")
	if !v3.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorRequiredUUID(t *testing.T) {
	validUUID := uuid.New().String()

	v := New()
	v.RequiredUUID("request_id", validUUID)
	if v.HasErrors() {
		t.Errorf("expected no errors for valid UUID, got %v", v.Errors())
	}

	v2 := New()
	v2.RequiredUUID("request_id", "")
	if !v2.HasErrors() {
		t.Error("expected error for empty UUID")
	}

	v3 := New()
	v3.RequiredUUID("request_id", "not-a-uuid")
	if !v3.HasErrors() {
		t.Error("expected error for invalid UUID")
	}

	v4 := New()
	v4.RequiredUUID("request_id", uuid.Nil.String())
	if !v4.HasErrors() {
		t.Error("expected error for nil UUID")
	}
}

func TestValidatorOptionalUUID(t *testing.T) {
	v := New()
	v.OptionalUUID("session_id", "")
	if v.HasErrors() {
		t.Error("expected no error for empty optional UUID")
	}

	v2 := New()
	v2.OptionalUUID("session_id", uuid.New().String())
	if v2.HasErrors() {
		t.Error("expected no error for valid optional UUID")
	}

	v3 := New()
	v3.OptionalUUID("session_id", "bad-uuid")
	if !v3.HasErrors() {
		t.Error("expected error for invalid optional UUID")
	}
}

func TestValidatorMaxLength(t *testing.T) {
	v := New()
	v.MaxLength("language", "en-US", 10)
	if v.HasErrors() {
		t.Error("expected no error for string within max length")
	}

	v2 := New()
	v2.MaxLength("language", "this is too long", 5)
	if !v2.HasErrors() {
		t.Error("expected error for string exceeding max length")
	}
}

func TestValidatorMinLength(t *testing.T) {
	v := New()
	v.MinLength("api_key", "abcdef", 6)
	if v.HasErrors() {
		t.Error("expected no error for string meeting min length")
	}

	v2 := New()
	v2.MinLength("api_key", "ab", 6)
	if !v2.HasErrors() {
		t.Error("expected error for string below min length")
	}
}

func TestValidatorRange(t *testing.T) {
	v := New()
	v.Range("bits_per_sample", 16, 8, 32)
	if v.HasErrors() {
		t.Error("expected no error for value in range")
	}

	v2 := New()
	v2.Range("bits_per_sample", 4, 8, 32)
	if !v2.HasErrors() {
		t.Error("expected error for value below range")
	}

	v3 := New()
	v3.Range("bits_per_sample", 64, 8, 32)
	if !v3.HasErrors() {
		t.Error("expected error for value above range")
	}
}

func TestValidatorMinMax(t *testing.T) {
	v := New()
	v.Min("channels", 1, 1)
	v.Max("channels", 1, 2)
	if v.HasErrors() {
		t.Error("expected no errors")
	}

	v2 := New()
	v2.Min("channels", 0, 1)
	if !v2.HasErrors() {
		t.Error("expected error for value below min")
	}

	v3 := New()
	v3.Max("channels", 3, 2)
	if !v3.HasErrors() {
		t.Error("expected error for value above max")
	}
}

func TestValidatorMultipleOf(t *testing.T) {
	v := New()
	v.MultipleOf("audio_bytes", 6400, 2)
	if v.HasErrors() {
		t.Error("expected no error for aligned byte count")
	}

	v2 := New()
	v2.MultipleOf("audio_bytes", 6401, 2)
	if !v2.HasErrors() {
		t.Error("expected error for misaligned byte count")
	}

	v3 := New()
	v3.MultipleOf("audio_bytes", 100, 0)
	if !v3.HasErrors() {
		t.Error("expected error for non-positive factor")
	}
}

func TestValidatorPattern(t *testing.T) {
	v := New()
	v.Pattern("hotkey", "CTRL+ALT+D", `^[A-Z+]+$`)
	if v.HasErrors() {
		t.Error("expected no error for matching pattern")
	}

	v2 := New()
	v2.Pattern("hotkey", "ctrl", `^[A-Z+]+$`)
	if !v2.HasErrors() {
		t.Error("expected error for non-matching pattern")
	}

	// Empty value should be skipped
	v3 := New()
	v3.Pattern("hotkey", "", `^[A-Z+]+$`)
	if v3.HasErrors() {
		t.Error("expected no error for empty value with pattern")
	}
}

func TestValidatorOneOf(t *testing.T) {
	v := New()
	v.OneOf("strategy", "clipboard", []string{"auto", "keystroke", "clipboard"})
	if v.HasErrors() {
		t.Error("expected no error for valid oneOf value")
	}

	v2 := New()
	v2.OneOf("strategy", "teleport", []string{"auto", "keystroke", "clipboard"})
	if !v2.HasErrors() {
		t.Error("expected error for invalid oneOf value")
	}

	// Empty should be skipped
	v3 := New()
	v3.OneOf("strategy", "", []string{"auto"})
	if v3.HasErrors() {
		t.Error("expected no error for empty oneOf value")
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(true, "field", "should pass")
	if v.HasErrors() {
		t.Error("expected no error for true condition")
	}

	v2 := New()
	v2.Custom(false, "field", "custom error")
	if !v2.HasErrors() {
		t.Error("expected error for false condition")
	}
	if v2.Errors()[0].Message != "custom error" {
		t.Errorf("expected 'custom error', got %q", v2.Errors()[0].Message)
	}
}

func TestValidatorValidate(t *testing.T) {
	v := New()
	v.Required("provider", "openai")
	appErr := v.Validate()
	if appErr != nil {
		t.Error("expected nil for valid input")
	}

	v2 := New()
	v2.Required("provider", "")
	v2.Required("language", "")
	appErr2 := v2.Validate()
	if appErr2 == nil {
		t.Fatal("expected error")
	}
	if appErr2.Details == nil {
		t.Fatal("expected details in error")
	}
	if !strings.Contains(appErr2.Message, "provider") || !strings.Contains(appErr2.Message, "language") {
		t.Errorf("expected both fields in message, got %q", appErr2.Message)
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New()
	result := v.Required("provider", "openai").MaxLength("provider", "openai", 100).Min("sample_rate", 16000, 8000)
	if result != v {
		t.Error("expected chaining to return same validator")
	}
	if v.HasErrors() {
		t.Error("expected no errors for valid chained validation")
	}
}

func TestStructValidateValid(t *testing.T) {
	type ProviderConfig struct {
		Name     string `json:"name" validate:"required"`
		Endpoint string `json:"endpoint" validate:"required,url"`
	}

	err := Validate(ProviderConfig{Name: "openai", Endpoint: "https://api.openai.com/v1"})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	type ProviderConfig struct {
		Name     string `json:"name" validate:"required"`
		Endpoint string `json:"endpoint" validate:"required,url"`
	}

	err := Validate(ProviderConfig{Name: "", Endpoint: "not-a-url"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "name") {
		t.Errorf("expected error to mention 'name', got %q", errStr)
	}
}

func TestStructValidateMaxMin(t *testing.T) {
	type Input struct {
		Language string `json:"language" validate:"required,min=2,max=10"`
	}

	if err := Validate(Input{Language: "en"}); err != nil {
		t.Errorf("expected valid, got %v", err)
	}

	if err := Validate(Input{Language: "e"}); err == nil {
		t.Error("expected error for language tag too short")
	}
}

func TestStructValidateNestedSettingsPath(t *testing.T) {
	type ServerSettings struct {
		Port int `mapstructure:"port" validate:"omitempty,gte=1,lte=65535"`
	}
	type Settings struct {
		Server ServerSettings `mapstructure:"server"`
	}

	err := Validate(Settings{Server: ServerSettings{Port: 700000}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "server.port") {
		t.Errorf("expected mapstructure field path, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "must be 65535 or less") {
		t.Errorf("expected bound in message, got %q", err.Error())
	}
}

func TestValidateUUIDFunc(t *testing.T) {
	validUUID := uuid.New().String()
	id, err := ValidateUUID("request_id", validUUID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id.String() != validUUID {
		t.Errorf("expected %s, got %s", validUUID, id.String())
	}
}

func TestValidateUUIDFuncEmpty(t *testing.T) {
	_, err := ValidateUUID("request_id", "")
	if err == nil {
		t.Error("expected error for empty UUID")
	}
}

func TestValidateUUIDFuncInvalid(t *testing.T) {
	_, err := ValidateUUID("request_id", "bad")
	if err == nil {
		t.Error("expected error for invalid UUID")
	}
}

func TestRequiredFunc(t *testing.T) {
	err := Required("provider", "openai")
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	err = Required("provider", "")
	if err == nil {
		t.Error("expected error for empty required field")
	}
}
