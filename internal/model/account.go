package model

import "time"

// Account is a registered user record. Created on signup, never mutated,
// never deleted. Username is the unique key.
//
// Password is stored as the client sent it; comparison goes through the
// account service's Verifier so a hashed representation can be swapped in
// without touching the storage layer.
type Account struct {
	Username  string
	Password  string
	CreatedAt time.Time
}
