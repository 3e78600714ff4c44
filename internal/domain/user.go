package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a persisted user record. UserName mirrors Email; the two
// are kept as separate columns because claims expose them independently.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserName     string    `db:"user_name" json:"user_name"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Claim is a key/value attribute asserted about a user and exposed to
// relying parties without re-querying the store.
type Claim struct {
	Key   string `db:"claim_key" json:"key"`
	Value string `db:"claim_value" json:"value"`
}

// Claim keys written on registration.
const (
	ClaimUserName = "userName"
	ClaimName     = "name"
	ClaimEmail    = "email"
)

// RegistrationRequest is the transient input of one registration attempt.
type RegistrationRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
