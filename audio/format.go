package audio

import (
	"fmt"
	"time"

	"github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/validation"
)

// Format describes raw PCM audio.
type Format struct {
	// SampleRate is the number of frames per second, e.g. 16000.
	SampleRate int `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"`
	// Channels is the number of interleaved channels (1 = mono).
	Channels int `json:"channels" yaml:"channels" mapstructure:"channels"`
	// BitsPerSample is the sample width. Only 16 is supported.
	BitsPerSample int `json:"bits_per_sample" yaml:"bits_per_sample" mapstructure:"bits_per_sample"`
}

// DefaultFormat returns 16 kHz mono PCM16, the capture format used for
// dictation.
func DefaultFormat() Format {
	return Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
}

// BytesPerFrame returns the size of one frame: one sample per channel.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitsPerSample / 8
}

// BytesPerSecond returns the raw data rate of the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BytesPerFrame()
}

// Duration returns the play time of n bytes of audio in this format.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bps))
}

// BytesFor returns the frame-aligned byte count covering d of audio.
func (f Format) BytesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(int64(d) * int64(f.BytesPerSecond()) / int64(time.Second))
	frame := f.BytesPerFrame()
	if frame <= 0 {
		return 0
	}
	return n - n%frame
}

// String formats like "16000Hz 1ch 16-bit".
func (f Format) String() string {
	return fmt.Sprintf("%dHz %dch %d-bit", f.SampleRate, f.Channels, f.BitsPerSample)
}

// Validate checks that the format is one the pipeline can carry.
func (f Format) Validate() error {
	v := validation.New().
		Range("sample_rate", f.SampleRate, 8000, 48000).
		Range("channels", f.Channels, 1, 2).
		Custom(f.BitsPerSample == 16, "bits_per_sample", "only 16-bit PCM is supported")
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ValidateClip checks a captured clip against its format. maxDuration of
// zero disables the length cap.
func ValidateClip(data []byte, f Format, maxDuration time.Duration) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.InvalidAudio("clip is empty")
	}
	frame := f.BytesPerFrame()
	if len(data)%frame != 0 {
		return errors.InvalidAudio(fmt.Sprintf("clip length %d is not a multiple of the %d byte frame", len(data), frame))
	}
	if maxDuration > 0 {
		if d := f.Duration(len(data)); d > maxDuration {
			return errors.InvalidAudio(fmt.Sprintf("clip is %s, longer than the %s maximum",
				d.Round(time.Millisecond), maxDuration))
		}
	}
	return nil
}
