package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/skillsenselab/voicekit/errors"
)

// EncodeWAV wraps a PCM16 clip in a WAV container for providers that expect
// a file upload rather than raw samples.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if len(pcm)%f.BytesPerFrame() != 0 {
		return nil, errors.InvalidAudio(fmt.Sprintf("clip length %d is not a multiple of the %d byte frame", len(pcm), f.BytesPerFrame()))
	}

	ws := &bufferWriteSeeker{}
	enc := wav.NewEncoder(ws, f.SampleRate, f.BitsPerSample, f.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: f.Channels,
			SampleRate:  f.SampleRate,
		},
		Data:           pcmToInts(pcm),
		SourceBitDepth: f.BitsPerSample,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return nil, errors.InvalidAudio(fmt.Sprintf("encode WAV: %v", err))
	}
	if err := enc.Close(); err != nil {
		return nil, errors.InvalidAudio(fmt.Sprintf("finalize WAV: %v", err))
	}
	return ws.buf, nil
}

// DecodeWAV probes a WAV stream and returns its PCM16 samples and format.
func DecodeWAV(r io.ReadSeeker) ([]byte, Format, error) {
	d := wav.NewDecoder(r)
	d.ReadInfo()
	if !d.IsValidFile() {
		return nil, Format{}, errors.InvalidAudio("not a valid WAV file")
	}
	if d.BitDepth != 16 {
		return nil, Format{}, errors.InvalidAudio(fmt.Sprintf("unsupported bit depth %d, only 16-bit PCM is supported", d.BitDepth))
	}

	f := Format{
		SampleRate:    int(d.SampleRate),
		Channels:      int(d.NumChans),
		BitsPerSample: int(d.BitDepth),
	}
	if err := f.Validate(); err != nil {
		return nil, Format{}, err
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, Format{}, errors.InvalidAudio(fmt.Sprintf("read WAV samples: %v", err))
	}
	return intsToPCM(buf.Data), f, nil
}

// pcmToInts converts little-endian PCM16 bytes to the int samples go-audio
// buffers carry.
func pcmToInts(pcm []byte) []int {
	out := make([]int, len(pcm)/2)
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	return out
}

// intsToPCM converts int samples back to little-endian PCM16 bytes.
func intsToPCM(samples []int) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s)))
	}
	return out
}

// bufferWriteSeeker is an in-memory io.WriteSeeker. The WAV encoder seeks
// back to patch chunk sizes on Close, which bytes.Buffer cannot do.
type bufferWriteSeeker struct {
	buf []byte
	pos int
}

func (b *bufferWriteSeeker) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.buf) {
		grown := make([]byte, need)
		copy(grown, b.buf)
		b.buf = grown
	}
	copy(b.buf[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *bufferWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position %d", pos)
	}
	b.pos = int(pos)
	return pos, nil
}
