package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
)

// MemoryStore keeps users in process memory. It enforces the same password
// policy and email uniqueness as the Postgres adapter and is used by tests
// and local development without a database.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]domain.User
	claims map[uuid.UUID][]domain.Claim

	// CreateHook mirrors the Postgres store's hook: it runs before the user
	// becomes visible and a hook error aborts the creation. The tx argument
	// is nil, there is no transaction in memory.
	CreateHook CreateHook
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[uuid.UUID]domain.User),
		claims: make(map[uuid.UUID][]domain.Claim),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user domain.User, password string) error {
	if errs := checkPassword(password); len(errs) > 0 {
		return errs
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return Errors{{
				Field:       "email",
				Code:        CodeDuplicateEmail,
				Description: "email '" + user.Email + "' is already taken",
			}}
		}
	}

	user.PasswordHash = string(hashed)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	if s.CreateHook != nil {
		if err := s.CreateHook(ctx, nil, user); err != nil {
			return err
		}
	}

	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) AddClaim(ctx context.Context, userID uuid.UUID, claim domain.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return ErrNotFound
	}
	s.claims[userID] = append(s.claims[userID], claim)
	return nil
}

func (s *MemoryStore) FindByUserName(ctx context.Context, userName string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.UserName, userName) {
			copied := u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// Claims returns a copy of the claims recorded for a user.
func (s *MemoryStore) Claims(userID uuid.UUID) []domain.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Claim(nil), s.claims[userID]...)
}

// Len reports how many users the store holds.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
