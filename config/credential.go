// config/credential.go
package config

import (
	"fmt"

	"github.com/99designs/keyring"
)

const keyringService = "endotrack"

// Keyring item names for secrets that may be kept out of config files.
const (
	SecretJWT = "jwt_secret"
	SecretS3  = "s3_secret_access_key"
)

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:          "~/.config/endotrack/credentials",
		FilePasswordFunc: keyring.FixedStringPrompt("endotrack-file-key"),
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// GetSecret reads a secret from the OS keyring.
func GetSecret(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting secret %q: %w", key, err)
	}
	return string(item.Data), nil
}

// SetSecret stores a secret in the OS keyring.
func SetSecret(key, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting secret %q: %w", key, err)
	}
	return nil
}
