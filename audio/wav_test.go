package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/skillsenselab/voicekit/errors"
)

// sinePCM builds a deterministic PCM16 payload of n frames.
func sinePCM(n int, f Format) []byte {
	out := make([]byte, n*f.BytesPerFrame())
	for i := 0; i < n*f.Channels; i++ {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(i*257-16384)))
	}
	return out
}

func TestEncodeDecodeWAV_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		frames int
	}{
		{"mono 16kHz", DefaultFormat(), 320},
		{"stereo 16kHz", Format{16000, 2, 16}, 160},
		{"mono 44.1kHz", Format{44100, 1, 16}, 441},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm := sinePCM(tt.frames, tt.format)

			container, err := EncodeWAV(pcm, tt.format)
			if err != nil {
				t.Fatalf("EncodeWAV failed: %v", err)
			}
			if len(container) <= len(pcm) {
				t.Errorf("container of %d bytes should be larger than %d bytes of samples", len(container), len(pcm))
			}
			if !bytes.Equal(container[:4], []byte("RIFF")) {
				t.Error("container does not start with a RIFF header")
			}

			decoded, format, err := DecodeWAV(bytes.NewReader(container))
			if err != nil {
				t.Fatalf("DecodeWAV failed: %v", err)
			}
			if format != tt.format {
				t.Errorf("decoded format %+v, want %+v", format, tt.format)
			}
			if !bytes.Equal(decoded, pcm) {
				t.Error("decoded samples do not match the original clip")
			}
		})
	}
}

func TestEncodeWAV_RejectsBadInput(t *testing.T) {
	f := DefaultFormat()

	if _, err := EncodeWAV(make([]byte, 100), Format{SampleRate: 100, Channels: 1, BitsPerSample: 16}); err == nil {
		t.Error("expected error for invalid format")
	}

	_, err := EncodeWAV(make([]byte, 101), f)
	if err == nil {
		t.Fatal("expected error for misaligned clip")
	}
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeInvalidAudio {
		t.Errorf("expected INVALID_AUDIO, got %v", err)
	}
}

func TestDecodeWAV_RejectsNonWAV(t *testing.T) {
	_, _, err := DecodeWAV(bytes.NewReader([]byte("definitely not a wav file")))
	if err == nil {
		t.Fatal("expected error for garbage input")
	}
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeInvalidAudio {
		t.Errorf("expected INVALID_AUDIO, got %v", err)
	}
}

func TestBufferWriteSeeker(t *testing.T) {
	ws := &bufferWriteSeeker{}

	if _, err := ws.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if pos, err := ws.Seek(0, io.SeekStart); err != nil || pos != 0 {
		t.Fatalf("Seek start = %d, %v", pos, err)
	}
	if _, err := ws.Write([]byte("HELLO")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if string(ws.buf) != "HELLO world" {
		t.Errorf("buffer = %q, want %q", ws.buf, "HELLO world")
	}

	if pos, err := ws.Seek(0, io.SeekEnd); err != nil || pos != 11 {
		t.Errorf("Seek end = %d, %v, want 11", pos, err)
	}
	if pos, err := ws.Seek(-5, io.SeekCurrent); err != nil || pos != 6 {
		t.Errorf("Seek current = %d, %v, want 6", pos, err)
	}
	if _, err := ws.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected error for negative position")
	}
	if _, err := ws.Seek(0, 99); err == nil {
		t.Error("expected error for invalid whence")
	}

	// Seeking past the end then writing must zero-fill the gap.
	ws2 := &bufferWriteSeeker{}
	ws2.Seek(4, io.SeekStart)
	ws2.Write([]byte{0xAB})
	if !bytes.Equal(ws2.buf, []byte{0, 0, 0, 0, 0xAB}) {
		t.Errorf("buffer = %v, want zero-filled gap", ws2.buf)
	}
}
