package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext secret using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext secret with a stored hash.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var (
	decoyOnce sync.Once
	decoyHash string
)

// burnVerify runs a bcrypt comparison against a decoy hash. Unknown emails
// cost as much as wrong passwords.
func burnVerify(password string) {
	decoyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("decoy"), bcrypt.DefaultCost)
		if err == nil {
			decoyHash = string(h)
		}
	})
	if decoyHash != "" {
		_ = bcrypt.CompareHashAndPassword([]byte(decoyHash), []byte(password))
	}
}
