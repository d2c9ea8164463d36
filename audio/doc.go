// Package audio models the PCM16 clips that flow from capture to the
// transcription providers: format math, clip validation, frame-aligned
// chunking for streaming uploads, and WAV container encode/probe for
// providers and file-backed sources.
//
// All byte counts in this package are frame aligned. A frame is one sample
// across all channels (2 bytes per channel for 16-bit PCM); splitting a
// frame corrupts every sample after the split, so chunk boundaries always
// land on frame boundaries.
package audio
