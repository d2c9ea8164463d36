// Package util provides generic utility functions for voicekit packages.
//
// It includes slice and map helpers, pointer helpers, size parsing, secret
// masking, and text sanitization for transcripts and environment values.
package util
