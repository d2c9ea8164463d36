package credentials

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/util"
)

// Secret holds a provider API key. The zero value is an empty secret.
type Secret struct {
	value string
}

// NewSecret creates a Secret from raw key material. Surrounding whitespace
// is trimmed.
func NewSecret(value string) Secret {
	return Secret{value: strings.TrimSpace(value)}
}

// Value returns the raw key material. Callers must not log the result.
func (s Secret) Value() string { return s.value }

// IsZero reports whether the secret is empty.
func (s Secret) IsZero() bool { return s.value == "" }

// String returns a masked form safe for logs.
func (s Secret) String() string {
	if s.value == "" {
		return ""
	}
	return util.MaskSecret(s.value, 4)
}

// GoString returns a masked form so %#v never leaks the value.
func (s Secret) GoString() string {
	return "credentials.Secret(" + s.String() + ")"
}

// MarshalJSON emits the masked form. Secrets embedded in diagnostic or
// audit payloads must never serialize their raw value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Store resolves the credential for a provider.
type Store interface {
	// Resolve returns the secret for the named provider. A missing
	// credential is reported with code NOT_FOUND so chained stores can
	// keep looking.
	Resolve(ctx context.Context, provider string) (Secret, error)
}

// Chain resolves from multiple stores in order. The first store that has a
// credential wins. Errors other than NOT_FOUND stop the chain immediately,
// since a broken keyring should surface rather than silently fall through.
type Chain []Store

// Resolve implements Store.
func (c Chain) Resolve(ctx context.Context, provider string) (Secret, error) {
	for _, store := range c {
		secret, err := store.Resolve(ctx, provider)
		if err == nil {
			return secret, nil
		}
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeNotFound {
			continue
		}
		return Secret{}, err
	}
	return Secret{}, errors.NotFound("credential", provider)
}
