// Package events defines the integration events this service emits and the
// AMQP publisher that delivers them. Event types are integration contracts,
// not domain entities: they stay flat and carry no password material.
package events

import (
	"github.com/google/uuid"

	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
)

// EventTypeUserCreated identifies the UserCreated event in outbox rows and
// message headers. The routing key is configured separately.
const EventTypeUserCreated = "UserCreatedEvent"

// UserCreated is published once per successful registration. Exactly these
// four fields; consumers must not learn anything else about the user.
type UserCreated struct {
	UserID   uuid.UUID `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	UserName string    `json:"userName"`
}

// NewUserCreated builds the event payload from a created user.
func NewUserCreated(user domain.User) UserCreated {
	return UserCreated{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		UserName: user.UserName,
	}
}
