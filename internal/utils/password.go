package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with bcrypt at the given
// cost.  Cost 0 falls back to the library default.
func HashPassword(password string, cost int) (string, error) {
    if cost <= 0 {
        cost = bcrypt.DefaultCost
    }
    hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
    if err != nil {
        return "", err
    }
    return string(hash), nil
}

// VerifyPassword reports whether the plaintext password matches the
// stored bcrypt hash.
func VerifyPassword(hash, password string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
