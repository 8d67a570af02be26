package auth

import "golang.org/x/crypto/bcrypt"

// MinPasswordLen is the minimum accepted password length for registration
// and resets.
const MinPasswordLen = 8

// HashPassword hashes a plaintext password with bcrypt at DefaultCost.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword compares a stored bcrypt hash against a candidate password.
func CheckPassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}
