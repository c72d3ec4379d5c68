package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/scrypt"
)

// Secrets file layout: [salt(16)][nonce(12)][ciphertext].
const (
	SecretsDir  = ".narrator"
	SecretsFile = "secrets.json.enc"

	saltSize  = 16
	nonceSize = 12
	keySize   = 32

	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// ErrSecretNotFound is returned when a secret is neither stored nor in the environment.
var ErrSecretNotFound = errors.New("secret not found")

// ErrWrongPassword is returned when the secrets file cannot be authenticated.
var ErrWrongPassword = errors.New("decryption failed (wrong password?)")

// Secrets holds decrypted credentials keyed by environment variable name.
// A nil Secrets is valid and falls through to the environment.
type Secrets map[string]string

// Get returns the named secret, preferring the stored value over the environment.
func (s Secrets) Get(name string) (string, error) {
	if v, ok := s[name]; ok && v != "" {
		return v, nil
	}
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s (set it with 'narrator secrets set %s' or export it)", ErrSecretNotFound, name, name)
}

// Names returns the stored secret names sorted.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SecretsPath returns the encrypted secrets path under projectDir.
func SecretsPath(projectDir string) string {
	return filepath.Join(projectDir, SecretsDir, SecretsFile)
}

// SecretsFileExists reports whether an encrypted secrets file exists.
func SecretsFileExists(projectDir string) bool {
	_, err := os.Stat(SecretsPath(projectDir))
	return err == nil
}

// SaveSecrets encrypts secrets with password and writes them with 0600 permissions.
func SaveSecrets(projectDir, password string, secrets Secrets) error {
	if password == "" {
		return errors.New("password is required to encrypt secrets")
	}
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	gcm, err := newGCM(password, salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	data := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	data = append(data, salt...)
	data = append(data, nonce...)
	data = append(data, ciphertext...)

	path := SecretsPath(projectDir)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set secrets file permissions: %w", err)
	}
	return nil
}

// LoadSecrets decrypts the secrets file. A missing file yields empty Secrets.
func LoadSecrets(projectDir, password string) (Secrets, error) {
	data, err := os.ReadFile(SecretsPath(projectDir))
	if errors.Is(err, os.ErrNotExist) {
		return Secrets{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}
	if len(data) < saltSize+nonceSize {
		return nil, errors.New("secrets file is truncated")
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	ciphertext := data[saltSize+nonceSize:]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassword
	}

	secrets := Secrets{}
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets: %w", err)
	}
	return secrets, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
