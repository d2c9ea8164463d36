package audio

import (
	"context"
	"fmt"
	"os"

	"github.com/skillsenselab/voicekit/errors"
)

// Source supplies a captured clip to the pipeline. Implementations return
// raw PCM16 bytes in the format they advertise.
type Source interface {
	Format() Format
	Clip(ctx context.Context) ([]byte, error)
}

// BufferSource serves a clip already held in memory, the normal case when
// capture writes into a ring buffer and hands the result off on hotkey
// release.
type BufferSource struct {
	data   []byte
	format Format
}

// NewBufferSource validates the clip against the format before wrapping it.
func NewBufferSource(data []byte, f Format) (*BufferSource, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateClip(data, f, 0); err != nil {
		return nil, err
	}
	return &BufferSource{data: data, format: f}, nil
}

func (s *BufferSource) Format() Format { return s.format }

func (s *BufferSource) Clip(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.data, nil
}

// FileSource reads a WAV file on demand, probing its header for the format.
// Useful for replaying recorded clips and for tests.
type FileSource struct {
	path   string
	format Format
}

// NewFileSource probes the file header once so Format is available before
// the first Clip call.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.InvalidAudio(fmt.Sprintf("open %s: %v", path, err))
	}
	defer f.Close()

	_, format, err := DecodeWAV(f)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, format: format}, nil
}

func (s *FileSource) Format() Format { return s.format }

func (s *FileSource) Clip(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.InvalidAudio(fmt.Sprintf("open %s: %v", s.path, err))
	}
	defer f.Close()

	pcm, _, err := DecodeWAV(f)
	if err != nil {
		return nil, err
	}
	return pcm, nil
}
