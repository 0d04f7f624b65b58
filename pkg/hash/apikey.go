package hash

import (
	"crypto/sha256"
	"fmt"
)

// KeyHasher provides hashing logic to securely store API keys.
type KeyHasher interface {
	Hash(key string) (string, error)
}

// SHA256Hasher uses SHA256 to hash API keys with provided salt.
type SHA256Hasher struct {
	salt string
}

func NewSHA256Hasher(salt string) *SHA256Hasher {
	return &SHA256Hasher{salt: salt}
}

// Hash creates SHA256 hash of given API key.
func (h *SHA256Hasher) Hash(key string) (string, error) {
	hash := sha256.New()

	if _, err := hash.Write([]byte(key)); err != nil {
		return "", err
	}

	//nolint:perfsprint
	return fmt.Sprintf("%x", hash.Sum([]byte(h.salt))), nil
}
