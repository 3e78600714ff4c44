package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
)

func newUser(email string) domain.User {
	return domain.User{
		ID:       uuid.New(),
		UserName: email,
		Name:     "Ana",
		Email:    email,
	}
}

func TestMemoryStore_CreateUser(t *testing.T) {
	s := NewMemoryStore()

	err := s.CreateUser(context.Background(), newUser("a@b.com"), "Passw0rd!")
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	found, err := s.FindByUserName(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", found.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte("Passw0rd!")))
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newUser("a@b.com"), "Passw0rd!"))

	err := s.CreateUser(ctx, newUser("A@B.com"), "Passw0rd!")
	var errs Errors
	require.ErrorAs(t, err, &errs)
	require.True(t, errs.Has(CodeDuplicateEmail))
	require.Equal(t, 1, s.Len())
}

func TestMemoryStore_PasswordPolicy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.CreateUser(ctx, newUser("a@b.com"), "short1")
	var errs Errors
	require.ErrorAs(t, err, &errs)
	require.True(t, errs.Has(CodePasswordTooShort))
	require.Equal(t, 0, s.Len())

	err = s.CreateUser(ctx, newUser("a@b.com"), "nodigitshere")
	require.ErrorAs(t, err, &errs)
	require.True(t, errs.Has(CodePasswordRequiresDigit))

	// Both violations at once surface as two field errors.
	err = s.CreateUser(ctx, newUser("a@b.com"), "x")
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
}

func TestMemoryStore_AddClaim(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := newUser("a@b.com")

	require.NoError(t, s.CreateUser(ctx, user, "Passw0rd!"))
	require.NoError(t, s.AddClaim(ctx, user.ID, domain.Claim{Key: domain.ClaimEmail, Value: "a@b.com"}))
	require.NoError(t, s.AddClaim(ctx, user.ID, domain.Claim{Key: domain.ClaimEmail, Value: "a@b.com"}))

	// Keys need not be unique in the store.
	require.Len(t, s.Claims(user.ID), 2)
}

func TestMemoryStore_AddClaim_UnknownUser(t *testing.T) {
	s := NewMemoryStore()
	err := s.AddClaim(context.Background(), uuid.New(), domain.Claim{Key: "x", Value: "y"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FindByUserName_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.FindByUserName(context.Background(), "missing@b.com")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_CreateHookErrorAbortsCreation(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("enlist failed")
	s.CreateHook = func(ctx context.Context, tx pgx.Tx, user domain.User) error {
		return boom
	}

	err := s.CreateUser(context.Background(), newUser("a@b.com"), "Passw0rd!")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, s.Len())

	_, err = s.FindByUserName(context.Background(), "a@b.com")
	require.ErrorIs(t, err, ErrNotFound)
}
