package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with the configured cost.
// Out-of-range costs fall back to the bcrypt default.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a plaintext password against its hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
