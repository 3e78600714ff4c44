package registration

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tomzre/futbal.mng.auth-identity/internal/domain"
	"github.com/tomzre/futbal.mng.auth-identity/internal/identity"
)

// RegisterListener observes successful registrations. Listeners run
// best-effort; they must not block or fail the registration.
type RegisterListener func(ctx context.Context, user domain.User)

type Handler struct {
	Service *Service

	// OnRegister runs best-effort after a successful registration.
	OnRegister RegisterListener
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// Register handles POST /api/account. The success body is an empty object on
// purpose: registration confirms, it does not echo profile fields.
func (h *Handler) Register(c *fiber.Ctx) error {
	var body domain.RegistrationRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	user, err := h.Service.Register(c.UserContext(), body)
	if err != nil {
		var errs identity.Errors
		if errors.As(err, &errs) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
		}
		return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
	}

	if h.OnRegister != nil {
		h.OnRegister(c.UserContext(), *user)
	}

	return c.JSON(fiber.Map{})
}
