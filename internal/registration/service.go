// Package registration implements the user-registration workflow: validate,
// create the user, attach identity claims, publish UserCreated.
package registration

import (
	"context"
	"log"
	"net/mail"

	"github.com/google/uuid"

	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
	"github.com/tomzre/futbal.mng.auth-identity/internal/events"
	"github.com/tomzre/futbal.mng.auth-identity/internal/identity"
)

// Service runs one registration per call. Concurrent registrations share
// nothing but the store, which enforces email uniqueness itself.
type Service struct {
	store     identity.Store
	publisher events.Publisher

	// outboxed disables the inline publish: the store's create hook has
	// already enlisted the event in the user-insert transaction and the
	// relay owns delivery.
	outboxed bool
}

func NewService(store identity.Store, publisher events.Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// NewOutboxedService builds a Service whose event delivery happens through
// the outbox relay instead of an inline publish.
func NewOutboxedService(store identity.Store) *Service {
	return &Service{store: store, outboxed: true}
}

// Register validates the request and creates the user. Validation failure
// has zero side effects. Store rejections come back as identity.Errors with
// no claims written and no event published. Claim-write and inline publish
// failures are logged and do not fail the registration: the user record
// already exists and must not be half-reported to the caller.
func (s *Service) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.User, error) {
	if errs := validate(req); len(errs) > 0 {
		return nil, errs
	}

	user := domain.User{
		ID:       uuid.New(),
		UserName: req.Email,
		Name:     req.Name,
		Email:    req.Email,
	}

	if err := s.store.CreateUser(ctx, user, req.Password); err != nil {
		return nil, err
	}

	claims := []domain.Claim{
		{Key: domain.ClaimUserName, Value: user.UserName},
		{Key: domain.ClaimName, Value: user.Name},
		{Key: domain.ClaimEmail, Value: user.Email},
	}
	for _, claim := range claims {
		if err := s.store.AddClaim(ctx, user.ID, claim); err != nil {
			log.Printf("registration: writing claim %q for user %s: %v", claim.Key, user.ID, err)
		}
	}

	if !s.outboxed && s.publisher != nil {
		if err := s.publisher.PublishUserCreated(ctx, user); err != nil {
			// Best-effort mode: the user is durably created, the event is
			// lost. The outbox mode exists to close this gap.
			log.Printf("registration: publishing %s for user %s: %v", events.EventTypeUserCreated, user.ID, err)
		}
	}

	return &user, nil
}

func validate(req domain.RegistrationRequest) identity.Errors {
	var errs identity.Errors

	switch {
	case req.Email == "":
		errs = append(errs, identity.FieldError{
			Field: "email", Code: identity.CodeRequired, Description: "email is required",
		})
	default:
		if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
			errs = append(errs, identity.FieldError{
				Field: "email", Code: identity.CodeInvalidEmail, Description: "email is not a valid address",
			})
		}
	}

	if req.Name == "" {
		errs = append(errs, identity.FieldError{
			Field: "name", Code: identity.CodeRequired, Description: "name is required",
		})
	}
	if req.Password == "" {
		errs = append(errs, identity.FieldError{
			Field: "password", Code: identity.CodeRequired, Description: "password is required",
		})
	}
	return errs
}
