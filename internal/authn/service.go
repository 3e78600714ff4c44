package authn

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomzre/futbal.mng.auth-identity/internal/clients"
	"github.com/tomzre/futbal.mng.auth-identity/internal/identity"
)

// Service is the store-backed TokenService: bcrypt password check against
// the identity store, HS256 session tokens, client registry lookups.
type Service struct {
	Store    identity.Store
	Registry *clients.Registry
	Secret   []byte
	TokenTTL time.Duration

	now func() time.Time
}

func NewService(store identity.Store, registry *clients.Registry, secret []byte, ttl time.Duration) *Service {
	return &Service{
		Store:    store,
		Registry: registry,
		Secret:   secret,
		TokenTTL: ttl,
		now:      time.Now,
	}
}

// AuthorizationContext resolves the return URL against the client registry.
// A nil context (no error) means no registered client covers the URL.
func (s *Service) AuthorizationContext(ctx context.Context, returnURL string) (*AuthorizationContext, error) {
	client, ok := s.Registry.MatchRedirect(returnURL)
	if !ok {
		return nil, nil
	}
	return &AuthorizationContext{ReturnURL: returnURL, ClientID: client.ID}, nil
}

func (s *Service) PasswordSignIn(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.Store.FindByUserName(ctx, username)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	issuedAt := s.now().UTC()
	claims := jwt.MapClaims{
		"sub":     user.ID.String(),
		"user_id": user.ID.String(),
		"name":    user.Name,
		"iat":     issuedAt.Unix(),
		"exp":     issuedAt.Add(s.TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID:   user.ID,
		UserName: user.UserName,
		Name:     user.Name,
		Token:    token,
		IssuedAt: issuedAt,
	}, nil
}

// LogoutContext resolves the sign-out view for a logout request. With no
// logout ID the UI must prompt; with one, the registered client's post-logout
// redirect is handed back.
func (s *Service) LogoutContext(ctx context.Context, logoutID string) (*LogoutContext, error) {
	out := &LogoutContext{LogoutID: logoutID, ShowSignoutPrompt: true}
	if logoutID == "" {
		return out, nil
	}

	// Logout IDs are issued per client as "<client-id>:<nonce>".
	clientID, _, _ := strings.Cut(logoutID, ":")
	client, ok := s.Registry.ByID(clientID)
	if !ok {
		return out, nil
	}

	out.ShowSignoutPrompt = false
	out.ClientName = client.Name
	if len(client.PostLogoutRedirectURIs) > 0 {
		out.PostLogoutRedirectURI = client.PostLogoutRedirectURIs[0]
	}
	return out, nil
}
