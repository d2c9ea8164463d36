package credentials

import (
	"context"
	"os"
	"strings"

	"github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/util"
)

// DefaultEnvPrefix is the environment variable prefix used when an EnvStore
// has no explicit prefix.
const DefaultEnvPrefix = "VOICEKIT"

// EnvStore resolves credentials from environment variables. The variable
// name for a provider is <prefix>_<PROVIDER>_API_KEY, so provider "openai"
// with the default prefix reads VOICEKIT_OPENAI_API_KEY. Values loaded from
// .env files by the config loader are visible here as well.
type EnvStore struct {
	// Prefix overrides DefaultEnvPrefix when non-empty.
	Prefix string
}

// Resolve implements Store.
func (s *EnvStore) Resolve(_ context.Context, provider string) (Secret, error) {
	key := EnvKey(s.prefix(), provider)
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return Secret{}, errors.NotFound("credential", provider).WithDetail("env_var", key)
	}
	return NewSecret(util.SanitizeEnvValue(raw)), nil
}

func (s *EnvStore) prefix() string {
	if s.Prefix != "" {
		return s.Prefix
	}
	return DefaultEnvPrefix
}

// EnvKey builds the environment variable name for a provider credential.
// Provider names are upper-cased and runs of non-alphanumeric characters
// become single underscores: "azure-speech" -> <prefix>_AZURE_SPEECH_API_KEY.
func EnvKey(prefix, provider string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('_')

	lastUnderscore := true
	for _, r := range strings.ToUpper(strings.TrimSpace(provider)) {
		isAlnum := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	if !lastUnderscore {
		b.WriteByte('_')
	}
	b.WriteString("API_KEY")
	return b.String()
}
