package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a startup account's password with bcrypt at the
// configured cost (BCRYPT_COST).
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether the plain password matches the stored
// hash.  bcrypt's comparison is constant-time; the boolean collapses
// mismatch and malformed-hash into one "no" for the login path.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
