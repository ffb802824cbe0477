package userservice

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// set hashes the plaintext password and keeps both forms on the struct.
func (p *Password) set(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return err
	}

	p.Plain = plain
	p.hash = hash

	return nil
}

// compare reports whether plain matches the stored hash. A mismatch is not an
// error.
func (p *Password) compare(plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
