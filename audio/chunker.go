package audio

// DefaultChunkBytes is the chunk size used for streaming uploads when the
// caller does not pick one. At 16 kHz mono PCM16 this is 128 ms of audio.
const DefaultChunkBytes = 4096

// Chunker slices a clip into frame-aligned chunks for streaming upload.
// Every chunk except possibly the last has the same size; the last chunk
// carries the remainder. No chunk boundary ever splits a frame.
type Chunker struct {
	data  []byte
	size  int
	off   int
	frame int
}

// NewChunker creates a chunker over data. chunkBytes is rounded down to a
// frame boundary; zero or too-small values fall back to DefaultChunkBytes.
func NewChunker(data []byte, f Format, chunkBytes int) *Chunker {
	frame := f.BytesPerFrame()
	if frame <= 0 {
		frame = 2
	}
	if chunkBytes < frame {
		chunkBytes = DefaultChunkBytes
	}
	chunkBytes -= chunkBytes % frame
	if chunkBytes < frame {
		chunkBytes = frame
	}
	return &Chunker{data: data, size: chunkBytes, frame: frame}
}

// Next returns the next chunk. The second return is false once the clip is
// exhausted. The returned slice aliases the clip; callers that keep chunks
// across iterations must copy.
func (c *Chunker) Next() ([]byte, bool) {
	if c.off >= len(c.data) {
		return nil, false
	}
	end := c.off + c.size
	if end > len(c.data) {
		end = len(c.data)
	}
	chunk := c.data[c.off:end]
	c.off = end
	return chunk, true
}

// Remaining returns the number of bytes not yet returned by Next.
func (c *Chunker) Remaining() int {
	return len(c.data) - c.off
}

// ChunkSize returns the frame-aligned chunk size in use.
func (c *Chunker) ChunkSize() int {
	return c.size
}

// Chunks returns how many chunks Next has yet to return.
func (c *Chunker) Chunks() int {
	return (c.Remaining() + c.size - 1) / c.size
}
