// Package identity persists user credentials and claims. It is the only
// package that knows how passwords are hashed and how uniqueness is enforced.
package identity

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/google/uuid"

	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
)

// ErrNotFound is returned by lookups when no user matches.
var ErrNotFound = errors.New("identity: user not found")

// Store is the user-credential and claims persistence boundary.
//
// CreateUser rejects with Errors (duplicate email, password policy); any
// other error is an infrastructure failure. AddClaim appends one claim; keys
// need not be unique in the store.
type Store interface {
	CreateUser(ctx context.Context, user domain.User, password string) error
	AddClaim(ctx context.Context, userID uuid.UUID, claim domain.Claim) error
	FindByUserName(ctx context.Context, userName string) (*domain.User, error)
}

const minPasswordLen = 8

// checkPassword applies the store password policy shared by all adapters.
func checkPassword(password string) Errors {
	var errs Errors
	if len(password) < minPasswordLen {
		errs = append(errs, FieldError{
			Field:       "password",
			Code:        CodePasswordTooShort,
			Description: fmt.Sprintf("passwords must be at least %d characters", minPasswordLen),
		})
	}
	hasDigit := false
	for _, r := range password {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		errs = append(errs, FieldError{
			Field:       "password",
			Code:        CodePasswordRequiresDigit,
			Description: "passwords must contain at least one digit",
		})
	}
	return errs
}
