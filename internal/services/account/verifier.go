package account

import "golang.org/x/crypto/bcrypt"

// Verifier abstracts how passwords are stored and compared, so the stored
// representation can change without touching the wire protocol or the
// storage layer.
type Verifier interface {
	// Hash produces the stored representation of a password
	Hash(password string) (string, error)

	// Verify reports whether a supplied password matches the stored
	// representation
	Verify(stored, supplied string) bool
}

// PlainVerifier stores passwords as-is. This is the historical behavior of
// the relay's flat-file directory and the default.
type PlainVerifier struct{}

func (PlainVerifier) Hash(password string) (string, error) {
	return password, nil
}

func (PlainVerifier) Verify(stored, supplied string) bool {
	return stored == supplied
}

// BcryptVerifier stores bcrypt hashes. Existing plaintext files cannot be
// verified with it, so it is only suitable for fresh directories.
type BcryptVerifier struct {
	Cost int
}

func (v BcryptVerifier) Hash(password string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (v BcryptVerifier) Verify(stored, supplied string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}
