package install

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// SecretAlphabet is the character set secrets are drawn from.
const SecretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()-_=+"

// SecretLength is the length of generated application secrets.
const SecretLength = 64

// GenerateSecret returns a SecretLength-character string drawn uniformly
// from SecretAlphabet.
func GenerateSecret() (string, error) {
	return randomString(SecretLength, SecretAlphabet)
}

// GeneratePassword returns an n-character alphanumeric password suitable for
// typing by hand.
func GeneratePassword(n int) (string, error) {
	return randomString(n, SecretAlphabet[:62])
}

func randomString(n int, alphabet string) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate secret: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

// RegenerateSecrets returns a copy of c with fresh nextauthSecret and
// encryptionKey values.
func (c Config) RegenerateSecrets() (Config, error) {
	var err error
	if c.NextAuthSecret, err = GenerateSecret(); err != nil {
		return c, err
	}
	if c.EncryptionKey, err = GenerateSecret(); err != nil {
		return c, err
	}
	return c, nil
}
