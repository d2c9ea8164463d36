package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})

	t.Run("service name propagates to logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Logging.ServiceName != "svc" {
			t.Errorf("expected logging service name 'svc', got %q", cfg.Logging.ServiceName)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid staging", ServiceConfig{Name: "svc", Environment: "staging"}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSettingsApplyDefaults(t *testing.T) {
	var s Settings
	s.ApplyDefaults()

	if s.Name != "voicekit" {
		t.Errorf("expected name 'voicekit', got %q", s.Name)
	}
	if s.Transcription.Primary != "openai" {
		t.Errorf("expected primary 'openai', got %q", s.Transcription.Primary)
	}
	if s.Transcription.AdmissionWait != 2*time.Second {
		t.Errorf("expected admission wait 2s, got %v", s.Transcription.AdmissionWait)
	}
	if s.Resilience.BreakerMaxFailures != 5 {
		t.Errorf("expected 5 breaker max failures, got %d", s.Resilience.BreakerMaxFailures)
	}
	if s.Resilience.Bucket.Capacity != 10 {
		t.Errorf("expected bucket capacity 10, got %f", s.Resilience.Bucket.Capacity)
	}
	if s.Injection.Strategy != "auto" {
		t.Errorf("expected strategy 'auto', got %q", s.Injection.Strategy)
	}
	if s.Audio.SampleRate != 16000 || s.Audio.Channels != 1 || s.Audio.BitsPerSample != 16 {
		t.Errorf("expected PCM16 mono 16kHz defaults, got %d/%d/%d",
			s.Audio.SampleRate, s.Audio.Channels, s.Audio.BitsPerSample)
	}
	if s.Server.Host != "127.0.0.1" {
		t.Errorf("expected loopback host, got %q", s.Server.Host)
	}
	if s.Metrics.Enabled {
		t.Error("expected metrics export disabled by default")
	}
	if s.Metrics.Endpoint != "localhost:4318" || s.Metrics.Interval != 15*time.Second {
		t.Errorf("expected collector defaults, got %q every %v", s.Metrics.Endpoint, s.Metrics.Interval)
	}
}

func TestSettingsKeyDelayDefaults(t *testing.T) {
	var s Settings
	s.ApplyDefaults()

	// Terminals fastest, IDEs slowest
	if s.Injection.KeyDelays["terminal"] >= s.Injection.KeyDelays["ide"] {
		t.Errorf("expected terminal delay < ide delay, got %v >= %v",
			s.Injection.KeyDelays["terminal"], s.Injection.KeyDelays["ide"])
	}
	if s.Injection.KeyDelays["ide"] != 12*time.Millisecond {
		t.Errorf("expected ide delay 12ms, got %v", s.Injection.KeyDelays["ide"])
	}

	// User-provided entries are preserved
	s2 := Settings{}
	s2.Injection.KeyDelays = map[string]time.Duration{"ide": 20 * time.Millisecond}
	s2.ApplyDefaults()
	if s2.Injection.KeyDelays["ide"] != 20*time.Millisecond {
		t.Errorf("expected user ide delay kept, got %v", s2.Injection.KeyDelays["ide"])
	}
	if s2.Injection.KeyDelays["terminal"] != 4*time.Millisecond {
		t.Errorf("expected missing categories filled, got %v", s2.Injection.KeyDelays["terminal"])
	}
}

func TestSettingsValidate(t *testing.T) {
	valid := func() Settings {
		var s Settings
		s.ApplyDefaults()
		return s
	}

	t.Run("defaults validate", func(t *testing.T) {
		s := valid()
		if err := s.Validate(); err != nil {
			t.Errorf("expected defaults to validate, got %v", err)
		}
	})

	t.Run("secondary equal to primary", func(t *testing.T) {
		s := valid()
		s.Transcription.Secondary = s.Transcription.Primary
		if err := s.Validate(); err == nil {
			t.Error("expected error for secondary == primary")
		}
	})

	t.Run("primary without provider settings", func(t *testing.T) {
		s := valid()
		s.Transcription.Providers = map[string]ProviderSettings{
			"azure": {Endpoint: "https://example.com"},
		}
		if err := s.Validate(); err == nil {
			t.Error("expected error for primary missing from providers")
		}
	})

	t.Run("invalid strategy", func(t *testing.T) {
		s := valid()
		s.Injection.Strategy = "teleport"
		if err := s.Validate(); err == nil {
			t.Error("expected error for unknown strategy")
		}
	})

	t.Run("non-positive bucket override", func(t *testing.T) {
		s := valid()
		s.Resilience.BucketOverrides = map[string]BucketSettings{
			"Transcription:openai": {Capacity: 0, RefillRate: 1},
		}
		if err := s.Validate(); err == nil {
			t.Error("expected error for zero capacity override")
		}
	})
}

func TestProviderOrder(t *testing.T) {
	ts := TranscriptionSettings{
		Providers: map[string]ProviderSettings{
			"deepgram": {Priority: 3},
			"openai":   {Priority: 1},
			"azure":    {Priority: 2},
		},
	}

	got := ts.ProviderOrder()
	want := []string{"openai", "azure", "deepgram"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: voicekit-test
environment: staging
transcription:
  primary: azure
  admission_wait: 3s
resilience:
  breaker_max_failures: 7
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Settings
	err := LoadConfig("voicekit-test", &cfg, WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "voicekit-test" {
		t.Errorf("expected name 'voicekit-test', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Transcription.Primary != "azure" {
		t.Errorf("expected primary 'azure', got %q", cfg.Transcription.Primary)
	}
	if cfg.Transcription.AdmissionWait != 3*time.Second {
		t.Errorf("expected admission wait 3s, got %v", cfg.Transcription.AdmissionWait)
	}
	if cfg.Resilience.BreakerMaxFailures != 7 {
		t.Errorf("expected 7 breaker max failures, got %d", cfg.Resilience.BreakerMaxFailures)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg Settings
	// With no config file found, LoadConfig should still succeed (just empty config)
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/my-svc/config.yml": true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("my-svc", LoaderConfig{})
	if files.ConfigFile != "./cmd/my-svc/config.yml" {
		t.Errorf("expected config file at ./cmd/my-svc/config.yml, got %q", files.ConfigFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
func (m *mockFS) Getwd() (string, error)    { return "/mock", nil }

func TestWithFileSystemOption(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
}

func TestWithConfigFileOption(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/to/config.yml")(&lc)
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
}

func TestWithEnvFileOption(t *testing.T) {
	var lc LoaderConfig
	WithEnvFile("/path/to/.env")(&lc)
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}
