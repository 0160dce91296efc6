package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptTokenHasher hashes service access tokens. Only the hash is stored;
// the raw token is returned once at provisioning time.
type BcryptTokenHasher struct {
	cost int
}

func NewBcryptTokenHasher(cost int) *BcryptTokenHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptTokenHasher{cost: cost}
}

func (h *BcryptTokenHasher) Hash(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to generate token hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptTokenHasher) Verify(token, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		// Generic message regardless of cause.
		return fmt.Errorf("token verification failed")
	}
	return nil
}
