// Package credentials resolves provider API keys for transcription calls.
//
// A Store maps a provider name to a Secret. Two implementations are
// provided: EnvStore reads VOICEKIT_<PROVIDER>_API_KEY style environment
// variables (including values loaded from .env files by the config loader),
// and FileStore reads an encrypted JSON keyring from disk. A Chain tries
// stores in order so environment variables can override the keyring.
//
// Secrets mask themselves in logs: String, GoString, and JSON marshaling
// all return a masked form. Only Value returns the raw key material.
//
// # Usage
//
//	store := credentials.Chain{
//	    &credentials.EnvStore{},
//	    fileStore,
//	}
//	secret, err := store.Resolve(ctx, "openai")
//	req.Header.Set("Authorization", "Bearer "+secret.Value())
package credentials
