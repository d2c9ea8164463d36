package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/skillsenselab/voicekit/validation"
)

// Settings is the full configuration surface of the dictation layer. The
// host shell loads it once with LoadConfig and hands sub-sections to the
// packages that consume them.
type Settings struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Transcription TranscriptionSettings `yaml:"transcription" mapstructure:"transcription"`
	Resilience    ResilienceSettings    `yaml:"resilience" mapstructure:"resilience"`
	Injection     InjectionSettings     `yaml:"injection" mapstructure:"injection"`
	Audio         AudioSettings         `yaml:"audio" mapstructure:"audio"`
	Server        ServerSettings        `yaml:"server" mapstructure:"server"`
	Audit         AuditSettings         `yaml:"audit" mapstructure:"audit"`
	Metrics       MetricsSettings       `yaml:"metrics" mapstructure:"metrics"`
}

// TranscriptionSettings configures provider selection and admission control.
type TranscriptionSettings struct {
	// Primary is the provider used first for every request.
	Primary string `yaml:"primary" mapstructure:"primary"`
	// Secondary is the single failover provider. Empty disables failover.
	Secondary string `yaml:"secondary" mapstructure:"secondary"`
	// Language is the default transcription language hint.
	Language string `yaml:"language" mapstructure:"language"`
	// MaxDuration aborts a transcription request that runs longer.
	MaxDuration time.Duration `yaml:"max_duration" mapstructure:"max_duration"`
	// AdmissionWait is the longest a request waits for rate-limit tokens
	// before failing with a rate-limited result.
	AdmissionWait time.Duration `yaml:"admission_wait" mapstructure:"admission_wait"`
	// Providers holds per-provider connection settings keyed by name.
	Providers map[string]ProviderSettings `yaml:"providers" mapstructure:"providers"`
}

// ProviderSettings configures one transcription provider.
type ProviderSettings struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
	Model    string `yaml:"model" mapstructure:"model"`
	// Priority orders providers for failover; lower runs first.
	Priority int `yaml:"priority" mapstructure:"priority"`
	// ChunkBytes is the upload chunk threshold. Payloads above it are split
	// on frame boundaries. 0 uses the provider default.
	ChunkBytes int `yaml:"chunk_bytes" mapstructure:"chunk_bytes"`
	// MaxBytes rejects payloads above this size before any upload. 0 uses
	// the provider default.
	MaxBytes int `yaml:"max_bytes" mapstructure:"max_bytes"`
	// Timeout bounds a single HTTP call to the provider.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ResilienceSettings configures retry, circuit breaking and rate limiting.
type ResilienceSettings struct {
	RetryMaxAttempts    int           `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts" validate:"omitempty,gte=1,lte=10"`
	RetryInitialBackoff time.Duration `yaml:"retry_initial_backoff" mapstructure:"retry_initial_backoff"`
	RetryMaxBackoff     time.Duration `yaml:"retry_max_backoff" mapstructure:"retry_max_backoff"`
	BreakerMaxFailures  int           `yaml:"breaker_max_failures" mapstructure:"breaker_max_failures" validate:"omitempty,gte=1"`
	BreakerCooldown     time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown"`
	// Bucket is the default token bucket for unknown resource keys.
	Bucket BucketSettings `yaml:"bucket" mapstructure:"bucket"`
	// BucketOverrides holds per-resource-key bucket sizes.
	BucketOverrides map[string]BucketSettings `yaml:"bucket_overrides" mapstructure:"bucket_overrides"`
}

// BucketSettings sizes one token bucket.
type BucketSettings struct {
	Capacity   float64 `yaml:"capacity" mapstructure:"capacity" validate:"omitempty,gt=0"`
	RefillRate float64 `yaml:"refill_rate" mapstructure:"refill_rate" validate:"omitempty,gt=0"`
}

// InjectionSettings configures text delivery into the foreground application.
type InjectionSettings struct {
	// Strategy overrides automatic selection: auto, keystroke, clipboard
	// or uiautomation.
	Strategy    string        `yaml:"strategy" mapstructure:"strategy" validate:"omitempty,oneof=auto keystroke clipboard uiautomation"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"omitempty,gte=1,lte=5"`
	RetryDelay  time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	// KeyDelays is the per-character keystroke delay per application
	// category. Values are empirically tuned placeholders, not constants.
	KeyDelays map[string]time.Duration `yaml:"key_delays" mapstructure:"key_delays"`
	// ClipboardPasteDelay is the pause between writing the clipboard and
	// sending the paste chord.
	ClipboardPasteDelay time.Duration `yaml:"clipboard_paste_delay" mapstructure:"clipboard_paste_delay"`
	// ClipboardRestoreDelay is the pause before the previous clipboard
	// contents are restored.
	ClipboardRestoreDelay time.Duration `yaml:"clipboard_restore_delay" mapstructure:"clipboard_restore_delay"`
}

// AudioSettings describes the PCM format sessions are expected to carry.
type AudioSettings struct {
	SampleRate    int `yaml:"sample_rate" mapstructure:"sample_rate" validate:"omitempty,oneof=8000 16000 22050 44100 48000"`
	Channels      int `yaml:"channels" mapstructure:"channels" validate:"omitempty,oneof=1 2"`
	BitsPerSample int `yaml:"bits_per_sample" mapstructure:"bits_per_sample" validate:"omitempty,oneof=16"`
	// MaxBytes rejects sessions above this payload size. 0 disables the cap.
	MaxBytes int `yaml:"max_bytes" mapstructure:"max_bytes"`
}

// ServerSettings configures the localhost introspection server.
type ServerSettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port" validate:"omitempty,gte=1,lte=65535"`
}

// AuditSettings configures the audit event dispatcher.
type AuditSettings struct {
	// BufferSize is the dispatcher queue length. Oldest events are dropped
	// when the queue is full.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size" validate:"omitempty,gte=1"`
	// Notifications enables desktop notifications for circuit and failure
	// events.
	Notifications bool `yaml:"notifications" mapstructure:"notifications"`
}

// MetricsSettings configures the OTLP metric exporter. Disabled by default:
// instruments record into a no-op meter until a collector endpoint is
// configured, so the pipeline code never checks whether export is on.
type MetricsSettings struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills every unset field with a workable default, so a zero
// Settings validates and runs.
func (s *Settings) ApplyDefaults() {
	if s.Name == "" {
		s.Name = "voicekit"
	}
	s.ServiceConfig.ApplyDefaults()

	t := &s.Transcription
	if t.Primary == "" {
		t.Primary = "openai"
	}
	if t.Language == "" {
		t.Language = "en"
	}
	if t.MaxDuration <= 0 {
		t.MaxDuration = 60 * time.Second
	}
	if t.AdmissionWait <= 0 {
		t.AdmissionWait = 2 * time.Second
	}

	r := &s.Resilience
	if r.RetryMaxAttempts <= 0 {
		r.RetryMaxAttempts = 3
	}
	if r.RetryInitialBackoff <= 0 {
		r.RetryInitialBackoff = 200 * time.Millisecond
	}
	if r.RetryMaxBackoff <= 0 {
		r.RetryMaxBackoff = 5 * time.Second
	}
	if r.BreakerMaxFailures <= 0 {
		r.BreakerMaxFailures = 5
	}
	if r.BreakerCooldown <= 0 {
		r.BreakerCooldown = 30 * time.Second
	}
	if r.Bucket.Capacity <= 0 {
		r.Bucket.Capacity = 10
	}
	if r.Bucket.RefillRate <= 0 {
		r.Bucket.RefillRate = 0.5
	}

	i := &s.Injection
	if i.Strategy == "" {
		i.Strategy = "auto"
	}
	if i.MaxAttempts <= 0 {
		i.MaxAttempts = 2
	}
	if i.RetryDelay <= 0 {
		i.RetryDelay = 150 * time.Millisecond
	}
	if i.KeyDelays == nil {
		i.KeyDelays = make(map[string]time.Duration)
	}
	for category, delay := range DefaultKeyDelays() {
		if _, ok := i.KeyDelays[category]; !ok {
			i.KeyDelays[category] = delay
		}
	}
	if i.ClipboardPasteDelay <= 0 {
		i.ClipboardPasteDelay = 120 * time.Millisecond
	}
	if i.ClipboardRestoreDelay <= 0 {
		i.ClipboardRestoreDelay = 80 * time.Millisecond
	}

	a := &s.Audio
	if a.SampleRate <= 0 {
		a.SampleRate = 16000
	}
	if a.Channels <= 0 {
		a.Channels = 1
	}
	if a.BitsPerSample <= 0 {
		a.BitsPerSample = 16
	}
	if a.MaxBytes < 0 {
		a.MaxBytes = 0
	}

	if s.Server.Host == "" {
		s.Server.Host = "127.0.0.1"
	}
	if s.Server.Port <= 0 {
		s.Server.Port = 7465
	}

	if s.Audit.BufferSize <= 0 {
		s.Audit.BufferSize = 256
	}

	if s.Metrics.Endpoint == "" {
		s.Metrics.Endpoint = "localhost:4318"
	}
	if s.Metrics.Interval <= 0 {
		s.Metrics.Interval = 15 * time.Second
	}
}

// DefaultKeyDelays returns the default per-character keystroke delay per
// application category. Terminals take input fastest; IDEs get the longest
// delay to stay ahead of autocomplete.
func DefaultKeyDelays() map[string]time.Duration {
	return map[string]time.Duration{
		"terminal":      4 * time.Millisecond,
		"editor":        8 * time.Millisecond,
		"browser":       10 * time.Millisecond,
		"office":        10 * time.Millisecond,
		"communication": 10 * time.Millisecond,
		"ide":           12 * time.Millisecond,
		"unknown":       10 * time.Millisecond,
	}
}

// Validate checks the settings for consistency. Call after ApplyDefaults.
func (s *Settings) Validate() error {
	if err := s.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(s); err != nil {
		return err
	}

	t := &s.Transcription
	if t.Primary == "" {
		return fmt.Errorf("transcription.primary is required")
	}
	if t.Secondary == t.Primary && t.Secondary != "" {
		return fmt.Errorf("transcription.secondary must differ from primary (got: %s)", t.Secondary)
	}
	if len(t.Providers) > 0 {
		if _, ok := t.Providers[t.Primary]; !ok {
			return fmt.Errorf("transcription.primary %q has no provider settings", t.Primary)
		}
		if t.Secondary != "" {
			if _, ok := t.Providers[t.Secondary]; !ok {
				return fmt.Errorf("transcription.secondary %q has no provider settings", t.Secondary)
			}
		}
	}

	for key, b := range s.Resilience.BucketOverrides {
		if b.Capacity <= 0 || b.RefillRate <= 0 {
			return fmt.Errorf("resilience.bucket_overrides[%s] must have positive capacity and refill_rate", key)
		}
	}

	return nil
}

// ProviderOrder returns the configured provider names sorted by priority,
// then name. Primary and secondary are honored by the gateway separately;
// this order covers introspection and registry listing.
func (t *TranscriptionSettings) ProviderOrder() []string {
	names := make([]string, 0, len(t.Providers))
	for name := range t.Providers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := t.Providers[names[i]].Priority, t.Providers[names[j]].Priority
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	return names
}
