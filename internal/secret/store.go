package secret

import "runtime"

// SecretStore holds sensitive client state such as the session cookie.
// Implementations: the macOS Keychain, private files, or process memory.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// Default returns the Keychain on macOS and a FileStore under dir
// elsewhere. Both are shared by every process of the same user.
func Default(dir string) SecretStore {
	if runtime.GOOS == "darwin" {
		return NewKeychainStore()
	}
	return NewFileStore(dir)
}
