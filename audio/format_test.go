package audio

import (
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/voicekit/errors"
)

func TestDefaultFormat(t *testing.T) {
	f := DefaultFormat()
	if f.SampleRate != 16000 || f.Channels != 1 || f.BitsPerSample != 16 {
		t.Errorf("unexpected default format: %+v", f)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("default format should validate, got %v", err)
	}
}

func TestFormat_FrameMath(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		frame  int
		perSec int
	}{
		{"mono 16kHz", Format{16000, 1, 16}, 2, 32000},
		{"stereo 16kHz", Format{16000, 2, 16}, 4, 64000},
		{"mono 48kHz", Format{48000, 1, 16}, 2, 96000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.BytesPerFrame(); got != tt.frame {
				t.Errorf("BytesPerFrame() = %d, want %d", got, tt.frame)
			}
			if got := tt.format.BytesPerSecond(); got != tt.perSec {
				t.Errorf("BytesPerSecond() = %d, want %d", got, tt.perSec)
			}
		})
	}
}

func TestFormat_Duration(t *testing.T) {
	f := DefaultFormat()

	if got := f.Duration(32000); got != time.Second {
		t.Errorf("Duration(32000) = %v, want 1s", got)
	}
	if got := f.Duration(16000); got != 500*time.Millisecond {
		t.Errorf("Duration(16000) = %v, want 500ms", got)
	}
	if got := f.Duration(0); got != 0 {
		t.Errorf("Duration(0) = %v, want 0", got)
	}

	// Zero format must not divide by zero.
	if got := (Format{}).Duration(1000); got != 0 {
		t.Errorf("zero format Duration = %v, want 0", got)
	}
}

func TestFormat_BytesFor(t *testing.T) {
	f := DefaultFormat()

	if got := f.BytesFor(time.Second); got != 32000 {
		t.Errorf("BytesFor(1s) = %d, want 32000", got)
	}
	if got := f.BytesFor(0); got != 0 {
		t.Errorf("BytesFor(0) = %d, want 0", got)
	}

	// Stereo frames are 4 bytes; the result must stay frame aligned.
	stereo := Format{SampleRate: 16000, Channels: 2, BitsPerSample: 16}
	got := stereo.BytesFor(333 * time.Millisecond)
	if got%stereo.BytesPerFrame() != 0 {
		t.Errorf("BytesFor returned %d, not frame aligned", got)
	}
}

func TestFormat_String(t *testing.T) {
	f := DefaultFormat()
	if got := f.String(); got != "16000Hz 1ch 16-bit" {
		t.Errorf("String() = %q", got)
	}
}

func TestFormat_Validate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"default", DefaultFormat(), false},
		{"stereo 44.1kHz", Format{44100, 2, 16}, false},
		{"rate too low", Format{4000, 1, 16}, true},
		{"rate too high", Format{96000, 1, 16}, true},
		{"zero channels", Format{16000, 0, 16}, true},
		{"too many channels", Format{16000, 3, 16}, true},
		{"8-bit", Format{16000, 1, 8}, true},
		{"24-bit", Format{16000, 1, 24}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClip(t *testing.T) {
	f := DefaultFormat()

	if err := ValidateClip(make([]byte, 3200), f, 0); err != nil {
		t.Errorf("aligned clip should pass, got %v", err)
	}

	err := ValidateClip(nil, f, 0)
	if err == nil {
		t.Fatal("expected error for empty clip")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidAudio {
		t.Errorf("expected INVALID_AUDIO, got %v", err)
	}

	err = ValidateClip(make([]byte, 3201), f, 0)
	if err == nil {
		t.Fatal("expected error for misaligned clip")
	}
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeInvalidAudio {
		t.Errorf("expected INVALID_AUDIO, got %v", err)
	}
	if !strings.Contains(err.Error(), "not a multiple") {
		t.Errorf("misaligned clip reason should mention alignment, got %q", err.Error())
	}
}

func TestValidateClip_MaxDuration(t *testing.T) {
	f := DefaultFormat()
	twoSeconds := make([]byte, f.BytesFor(2*time.Second))

	if err := ValidateClip(twoSeconds, f, 0); err != nil {
		t.Errorf("zero max should disable the cap, got %v", err)
	}
	if err := ValidateClip(twoSeconds, f, 3*time.Second); err != nil {
		t.Errorf("clip under the cap should pass, got %v", err)
	}

	err := ValidateClip(twoSeconds, f, time.Second)
	if err == nil {
		t.Fatal("expected error for clip over the cap")
	}
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeInvalidAudio {
		t.Errorf("expected INVALID_AUDIO, got %v", err)
	}
}

func TestValidateClip_BadFormat(t *testing.T) {
	if err := ValidateClip(make([]byte, 100), Format{SampleRate: 100, Channels: 1, BitsPerSample: 16}, 0); err == nil {
		t.Error("expected format validation to fail first")
	}
}
