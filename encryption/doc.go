// Package encryption provides authenticated symmetric encryption for
// secrets that voicekit stores on disk, such as provider API keys.
//
// Keys are derived from passphrases with SHA-256, producing 256-bit keys
// for AES-GCM or ChaCha20-Poly1305 authenticated encryption.
//
// # Usage
//
//	enc, err := encryption.New("my-secret-passphrase")
//	ciphertext, err := enc.Encrypt(plaintext)
//	plaintext, err := enc.Decrypt(ciphertext)
package encryption
