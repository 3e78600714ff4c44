package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
)

const pgUniqueViolation = "23505"

// CreateHook runs inside the user-creation transaction, after the insert.
// The outbox layer uses it to enlist an event row in the same commit.
type CreateHook func(ctx context.Context, tx pgx.Tx, user domain.User) error

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	Pool DB

	// CreateHook is optional; a hook error aborts the whole creation.
	CreateHook CreateHook
}

func NewPostgresStore(pool DB) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

func (s *PostgresStore) CreateUser(ctx context.Context, user domain.User, password string) error {
	if errs := checkPassword(password); len(errs) > 0 {
		return errs
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(
		ctx,
		`INSERT INTO users (id, user_name, name, email, password_hash)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING created_at`,
		user.ID, user.UserName, user.Name, user.Email, string(hashed),
	).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Errors{{
				Field:       "email",
				Code:        CodeDuplicateEmail,
				Description: "email '" + user.Email + "' is already taken",
			}}
		}
		return err
	}
	user.PasswordHash = string(hashed)

	if s.CreateHook != nil {
		if err := s.CreateHook(ctx, tx, user); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) AddClaim(ctx context.Context, userID uuid.UUID, claim domain.Claim) error {
	_, err := s.Pool.Exec(
		ctx,
		`INSERT INTO user_claims (user_id, claim_key, claim_value)
         VALUES ($1, $2, $3)`,
		userID, claim.Key, claim.Value,
	)
	return err
}

func (s *PostgresStore) FindByUserName(ctx context.Context, userName string) (*domain.User, error) {
	var u domain.User
	err := s.Pool.QueryRow(
		ctx,
		`SELECT id, user_name, name, email, password_hash, created_at
		 FROM users
		 WHERE LOWER(user_name) = LOWER($1)`,
		userName,
	).Scan(&u.ID, &u.UserName, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
