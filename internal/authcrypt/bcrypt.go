// Package authcrypt verifies RPSL maintainer credentials and the override
// secret against their stored hashes. It is intentionally narrow: it never
// derives session tokens or manages key material, only compares a
// candidate secret against a verifier already on file.
package authcrypt

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost matches the cost used when rewriting dummy auth hashes
// on resubmission (see ForceSingleNewPassword).
const DefaultBcryptCost = bcrypt.DefaultCost

// HashBcryptPW hashes password with bcrypt at DefaultBcryptCost.
func HashBcryptPW(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyBcryptPW reports whether password matches the given bcrypt hash.
func VerifyBcryptPW(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
