// Package authn forwards login and logout to a narrow token-service
// interface. There is no session state machine here: the token service owns
// sign-in, this package owns the HTTP shape.
package authn

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthorized covers both unknown users and wrong passwords; callers
// cannot distinguish the two.
var ErrUnauthorized = errors.New("authn: invalid credentials")

// AuthorizationContext describes the pending authorization a login belongs
// to. A login without a context is refused even with valid credentials.
type AuthorizationContext struct {
	ReturnURL string
	ClientID  string
}

// Session is an issued sign-in.
type Session struct {
	UserID   uuid.UUID
	UserName string
	Name     string
	Token    string
	IssuedAt time.Time
}

// LogoutContext carries what the client UI needs to complete a sign-out.
type LogoutContext struct {
	LogoutID              string
	ShowSignoutPrompt     bool
	ClientName            string
	PostLogoutRedirectURI string
	SignOutIFrameURL      string
}

// TokenService is the external identity-and-token boundary: authorization
// context lookup, password sign-in, logout context resolution.
type TokenService interface {
	AuthorizationContext(ctx context.Context, returnURL string) (*AuthorizationContext, error)
	PasswordSignIn(ctx context.Context, username, password string) (*Session, error)
	LogoutContext(ctx context.Context, logoutID string) (*LogoutContext, error)
}

// SignInListener observes successful sign-ins. Listeners run best-effort;
// they must not block or fail the login.
type SignInListener func(ctx context.Context, session Session, clientID string)
