package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/voicekit/audio"
	"github.com/skillsenselab/voicekit/credentials"
	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/httpclient"
	"github.com/skillsenselab/voicekit/transcription"
)

type staticStore map[string]string

func (s staticStore) Resolve(_ context.Context, provider string) (credentials.Secret, error) {
	v, ok := s[provider]
	if !ok {
		return credentials.Secret{}, apperrors.NotFound("credential", provider)
	}
	return credentials.NewSecret(v), nil
}

func testClip(t *testing.T) ([]byte, audio.Format) {
	t.Helper()
	f := audio.DefaultFormat()
	return make([]byte, f.BytesFor(100*time.Millisecond)), f
}

func newTestProvider(t *testing.T, url string) *Provider {
	t.Helper()
	p, err := NewProvider(Config{Endpoint: url, Credentials: staticStore{ProviderName: "az-key"}})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewProvider_RequiresCredentials(t *testing.T) {
	_, err := NewProvider(Config{})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeMissingField {
		t.Errorf("expected missing field error, got %v", err)
	}
}

func TestTranscribe_PostsWAVWithSubscriptionKey(t *testing.T) {
	clip, format := testClip(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != recognizePath {
			t.Errorf("path = %s, want %s", r.URL.Path, recognizePath)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "az-key" {
			t.Errorf("subscription key header = %q, want az-key", got)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/wav; codecs=audio/pcm; samplerate=16000" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}
		q := r.URL.Query()
		if got := q.Get("language"); got != "en-US" {
			t.Errorf("language = %q, want en-US", got)
		}
		if got := q.Get("format"); got != "simple" {
			t.Errorf("format = %q, want simple", got)
		}

		body, _ := io.ReadAll(r.Body)
		if !bytes.HasPrefix(body, []byte("RIFF")) {
			t.Error("body should be WAV wrapped")
		}
		if len(body) <= len(clip) {
			t.Errorf("body length %d should exceed raw clip length %d", len(body), len(clip))
		}

		json.NewEncoder(w).Encode(map[string]any{
			"RecognitionStatus": "Success",
			"DisplayText":       "  Hi there.  ",
			"Offset":            100000,
			"Duration":          25000000,
		})
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	resp, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{
		Audio: clip, Format: format, Language: "en",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "Hi there." {
		t.Errorf("text = %q, want trimmed transcript", resp.Text)
	}
	if resp.Language != "en-US" {
		t.Errorf("language = %q, want en-US", resp.Language)
	}
	if resp.Duration != 2500*time.Millisecond {
		t.Errorf("duration = %v, want 2.5s from 100ns ticks", resp.Duration)
	}
}

func TestTranscribe_NonSuccessStatusRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"RecognitionStatus": "NoMatch"})
	}))
	defer srv.Close()

	clip, format := testClip(t)
	p := newTestProvider(t, srv.URL)
	_, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{Audio: clip, Format: format})
	if err == nil {
		t.Fatal("expected error for NoMatch")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeProviderRejected {
		t.Fatalf("expected provider rejected error, got %v", err)
	}
	if appErr.Retryable {
		t.Error("a rejected clip must not be retried")
	}
	if !strings.Contains(appErr.Message, "NoMatch") {
		t.Errorf("message should name the status, got %q", appErr.Message)
	}
}

func TestTranscribe_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	clip, format := testClip(t)
	p := newTestProvider(t, srv.URL)
	_, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{Audio: clip, Format: format})
	if err == nil {
		t.Fatal("expected error for 503")
	}
	var herr *httpclient.Error
	if !errors.As(err, &herr) {
		t.Fatalf("expected httpclient error, got %T", err)
	}
	if !herr.IsRetryable() {
		t.Error("503 must classify as retryable")
	}
}

func TestTranscribe_GarbageResponseIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<!doctype html><title>gateway</title>"))
	}))
	defer srv.Close()

	clip, format := testClip(t)
	p := newTestProvider(t, srv.URL)
	_, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{Audio: clip, Format: format})
	if err == nil {
		t.Fatal("expected error for unparseable body")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeMalformedResponse {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestLangTag(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "en-US"},
		{"en", "en-US"},
		{"de", "de-DE"},
		{"DE", "de-DE"},
		{"pt", "pt-BR"},
		{"en-GB", "en-GB"},
		{"fr-CA", "fr-CA"},
	}
	for _, tc := range cases {
		if got := langTag(tc.in); got != tc.want {
			t.Errorf("langTag(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
