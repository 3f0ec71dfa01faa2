package password

import "golang.org/x/crypto/bcrypt"

// Hash derives a bcrypt hash of plain for storage. The library default
// cost is deliberate; stored hashes keep working if it changes upstream.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether plain matches the stored hash, returning the
// bcrypt mismatch error when it does not.
func Compare(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
