package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/skillsenselab/voicekit/encryption"
	"github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/util"
)

// keyringVersion is the on-disk format version.
const keyringVersion = 1

// keyringFile is the JSON document stored on disk. Values are ciphertexts
// produced by the configured Encryptor, never raw key material.
type keyringFile struct {
	Version int               `json:"version"`
	Keys    map[string]string `json:"keys"`
}

// FileStore resolves credentials from an encrypted keyring file. Entries
// are encrypted individually, so a dump of the file reveals provider names
// but no key material.
type FileStore struct {
	path string
	enc  encryption.Encryptor

	mu   sync.RWMutex
	keys map[string]string
}

// DefaultKeyringPath returns the keyring location inside the per-user
// configuration directory.
func DefaultKeyringPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "voicekit", "keyring.json"), nil
}

// NewFileStore opens the keyring at path, decrypting entries with enc on
// demand. A missing file yields an empty keyring; a corrupt file is an error.
func NewFileStore(path string, enc encryption.Encryptor) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		enc:  enc,
		keys: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keyring %s: %w", path, err)
	}

	var doc keyringFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Validation(fmt.Sprintf("keyring %s is not valid JSON", path)).WithCause(err)
	}
	if doc.Keys != nil {
		fs.keys = doc.Keys
	}
	return fs, nil
}

// Resolve implements Store. A decryption failure is reported as a
// validation error, not NOT_FOUND, so a Chain does not silently skip a
// keyring with the wrong passphrase.
func (s *FileStore) Resolve(_ context.Context, provider string) (Secret, error) {
	s.mu.RLock()
	ciphertext, ok := s.keys[normalizeProvider(provider)]
	s.mu.RUnlock()

	if !ok {
		return Secret{}, errors.NotFound("credential", provider).WithDetail("keyring", s.path)
	}

	plaintext, err := s.enc.Decrypt(ciphertext)
	if err != nil {
		return Secret{}, errors.Validation(
			fmt.Sprintf("keyring entry for %q could not be decrypted; check the keyring passphrase", provider),
		).WithCause(err)
	}
	return NewSecret(plaintext), nil
}

// Set encrypts and stores a credential for a provider. Call Save to persist.
func (s *FileStore) Set(provider, value string) error {
	ciphertext, err := s.enc.Encrypt(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("encrypt credential for %s: %w", provider, err)
	}

	s.mu.Lock()
	s.keys[normalizeProvider(provider)] = ciphertext
	s.mu.Unlock()
	return nil
}

// Delete removes a provider's credential. Call Save to persist.
func (s *FileStore) Delete(provider string) {
	s.mu.Lock()
	delete(s.keys, normalizeProvider(provider))
	s.mu.Unlock()
}

// Providers returns the provider names present in the keyring, sorted.
func (s *FileStore) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return util.SortedKeys(s.keys)
}

// Save writes the keyring to disk with owner-only permissions. The file is
// written to a temporary path first and renamed into place so a crash never
// leaves a truncated keyring.
func (s *FileStore) Save() error {
	s.mu.RLock()
	doc := keyringFile{Version: keyringVersion, Keys: s.keys}
	data, err := json.MarshalIndent(doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode keyring: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create keyring dir %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write keyring %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace keyring %s: %w", s.path, err)
	}
	return nil
}

// normalizeProvider keeps keyring lookups case-insensitive.
func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
