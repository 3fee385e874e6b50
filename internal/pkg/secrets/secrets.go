// Package secrets encrypts API keys at rest. Keys are derived from the
// configured device secret with PBKDF2 and sealed with AES-256-GCM; the random
// nonce is prepended to the ciphertext and the whole blob is base64-encoded.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	derivationSalt = "prompt-backend-salt-v1"
	iterations     = 100000
	keyLength      = 32
)

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Store seals and opens API-key blobs with a key derived once at startup.
type Store struct {
	aead cipher.AEAD
}

func NewStore(deviceSecret string) (*Store, error) {
	if deviceSecret == "" {
		return nil, errors.New("device secret must not be empty")
	}

	key := pbkdf2.Key([]byte(deviceSecret), []byte(derivationSalt), iterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Store{aead: aead}, nil
}

// Encrypt seals plaintext into a base64 blob. Empty input stays empty.
func (s *Store) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Empty input stays empty.
func (s *Store) Decrypt(blob string) (string, error) {
	if blob == "" {
		return "", nil
	}

	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("decode blob: %w", err)
	}
	if len(sealed) < s.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}

	return string(plaintext), nil
}

// ValidateAPIKey checks the well-known key shape of a provider. Providers
// without a stable prefix only get an emptiness check.
func ValidateAPIKey(provider, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("API Key 不能为空")
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(apiKey, "sk-ant-") {
			return errors.New("Anthropic API Key 应以 sk-ant- 开头")
		}
	case "openai":
		if !strings.HasPrefix(apiKey, "sk-") {
			return errors.New("OpenAI API Key 应以 sk- 开头")
		}
	case "deepseek":
		if !strings.HasPrefix(apiKey, "sk-") {
			return errors.New("DeepSeek API Key 应以 sk- 开头")
		}
	case "google":
		if len(apiKey) < 20 {
			return errors.New("Google API Key 格式不正确")
		}
	}

	return nil
}

// MaskAPIKey keeps only the prefix and the last four characters for display.
func MaskAPIKey(apiKey string) string {
	if len(apiKey) < 12 {
		return "***"
	}
	return apiKey[:7] + "..." + apiKey[len(apiKey)-4:]
}
