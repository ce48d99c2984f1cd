package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/zalando/go-keyring"

	"github.com/Veraticus/idlecal/pkg/log"
)

const (
	// ServiceName is the default keyring service identifier.
	// Can be overridden with IDLECAL_KEYRING_SERVICE for test isolation.
	ServiceName = "idlecal"
	// AccountName is the keyring account identifier.
	AccountName = "calendar-token"
)

// getServiceName returns the keyring service name, checking environment variable first.
func getServiceName() string {
	if name := os.Getenv("IDLECAL_KEYRING_SERVICE"); name != "" {
		return name
	}
	return ServiceName
}

// FileStore reads the grant from a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the token file.
func (f *FileStore) Load() ([]byte, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrTokenNotFound, f.path)
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	if perm := info.Mode().Perm(); perm&0077 != 0 {
		log.Warn("token file is readable by other users", "path", f.path, "mode", fmt.Sprintf("%04o", perm))
	}

	// #nosec G304 - The token path comes from configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	return data, nil
}

// Name describes the store for diagnostics.
func (f *FileStore) Name() string {
	return "file (" + f.path + ")"
}

// KeyringStore reads the grant from the system keychain.
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Load reads the token from the keyring.
func (k *KeyringStore) Load() ([]byte, error) {
	secret, err := keyring.Get(getServiceName(), AccountName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w: no keyring entry %s/%s", ErrTokenNotFound, getServiceName(), AccountName)
		}
		return nil, fmt.Errorf("keychain get: %w", err)
	}
	return []byte(secret), nil
}

// Save stores the token in the keyring, replacing any previous entry.
func (k *KeyringStore) Save(data []byte) error {
	if _, err := ParseAuthorizedUser(data); err != nil {
		return err
	}
	if err := keyring.Set(getServiceName(), AccountName, string(data)); err != nil {
		return fmt.Errorf("keychain set: %w", err)
	}
	return nil
}

// Name describes the store for diagnostics.
func (k *KeyringStore) Name() string {
	return "system keychain"
}
