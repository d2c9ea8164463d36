package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// aeadEncryptor implements Encryptor over any AEAD cipher. Both supported
// algorithms share the same wire format: base64(nonce || ciphertext).
type aeadEncryptor struct {
	algorithm Algorithm
	aead      cipher.AEAD
}

func newAEAD(alg Algorithm, key string) (*aeadEncryptor, error) {
	keyBytes := deriveKey(key)

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case AlgorithmChaCha20:
		aead, err = chacha20poly1305.New(keyBytes)
	case AlgorithmAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(keyBytes)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	default:
		return nil, fmt.Errorf("unsupported encryption algorithm %q", alg)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s cipher: %w", alg, err)
	}

	return &aeadEncryptor{algorithm: alg, aead: aead}, nil
}

// deriveKey hashes a passphrase with SHA-256 to a 32-byte key, the length
// both AES-256 and ChaCha20-Poly1305 require.
func deriveKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}

// Encrypt encrypts plaintext and returns a base64-encoded result with the
// random nonce prefixed.
func (e *aeadEncryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts a base64-encoded ciphertext produced by Encrypt.
func (e *aeadEncryptor) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}
