package persistence

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	configKeySize     = 32
	configNonceSize   = 24
	sealedConfigMagic = "sb1:"
)

var (
	// ErrInvalidConfigKey is returned when the encryption key is not 32 bytes of hex or base64
	ErrInvalidConfigKey = errors.New("erp config encryption key must be 32 bytes, hex or base64 encoded")
	// ErrConfigSealed is returned when an encrypted config is read without a key
	ErrConfigSealed = errors.New("erp config is encrypted but no encryption key is configured")
	// ErrConfigTampered is returned when a sealed config fails authentication
	ErrConfigTampered = errors.New("erp config could not be decrypted")
)

// ConfigCodec encodes ERP connection configs for storage. With a key, configs
// are sealed with NaCl secretbox; without one they are stored as plain JSON.
type ConfigCodec struct {
	key *[configKeySize]byte
}

// NewConfigCodec creates a codec from a hex or base64 encoded 32 byte key.
// An empty key yields a plaintext codec.
func NewConfigCodec(encodedKey string) (*ConfigCodec, error) {
	encodedKey = strings.TrimSpace(encodedKey)
	if encodedKey == "" {
		return &ConfigCodec{}, nil
	}

	raw, err := decodeConfigKey(encodedKey)
	if err != nil {
		return nil, err
	}
	var key [configKeySize]byte
	copy(key[:], raw)
	return &ConfigCodec{key: &key}, nil
}

func decodeConfigKey(encoded string) ([]byte, error) {
	if raw, err := hex.DecodeString(encoded); err == nil && len(raw) == configKeySize {
		return raw, nil
	}
	if raw, err := base64.StdEncoding.DecodeString(encoded); err == nil && len(raw) == configKeySize {
		return raw, nil
	}
	return nil, ErrInvalidConfigKey
}

// Encrypted reports whether configs are sealed before storage
func (c *ConfigCodec) Encrypted() bool {
	return c != nil && c.key != nil
}

// Encode serializes a config for the erp_connections.config column
func (c *ConfigCodec) Encode(config map[string]any) (string, error) {
	if config == nil {
		config = map[string]any{}
	}
	plain, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal erp config: %w", err)
	}
	if !c.Encrypted() {
		return string(plain), nil
	}

	var nonce [configNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, c.key)
	return sealedConfigMagic + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode restores a config written by Encode. Plain JSON written before a key
// was configured is still readable.
func (c *ConfigCodec) Decode(stored string) (map[string]any, error) {
	if stored == "" {
		return map[string]any{}, nil
	}

	plain := []byte(stored)
	if strings.HasPrefix(stored, sealedConfigMagic) {
		if !c.Encrypted() {
			return nil, ErrConfigSealed
		}
		sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedConfigMagic))
		if err != nil || len(sealed) < configNonceSize+secretbox.Overhead {
			return nil, ErrConfigTampered
		}
		var nonce [configNonceSize]byte
		copy(nonce[:], sealed[:configNonceSize])
		opened, ok := secretbox.Open(nil, sealed[configNonceSize:], &nonce, c.key)
		if !ok {
			return nil, ErrConfigTampered
		}
		plain = opened
	}

	config := map[string]any{}
	if err := json.Unmarshal(plain, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal erp config: %w", err)
	}
	return config, nil
}
