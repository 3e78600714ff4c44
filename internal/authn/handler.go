package authn

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ReturnURL string `json:"returnUrl"`
}

type loginResponse struct {
	RedirectURL string `json:"redirectUrl"`
	IsOK        bool   `json:"isOk"`
}

type logoutResponse struct {
	ShowSignoutPrompt     bool   `json:"showSignoutPrompt"`
	ClientName            string `json:"clientName"`
	PostLogoutRedirectURI string `json:"postLogoutRedirectUri"`
	SignOutIFrameURL      string `json:"signOutIFrameUrl"`
	LogoutID              string `json:"logoutId"`
}

type Handler struct {
	Tokens TokenService

	// OnSignIn runs best-effort after a successful login.
	OnSignIn SignInListener
}

func NewHandler(tokens TokenService) *Handler {
	return &Handler{Tokens: tokens}
}

// Login handles POST /api/authenticate. Valid credentials without a matching
// authorization context are still a 401: a login only makes sense inside a
// client's pending authorization.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	ctx := c.UserContext()

	authzCtx, err := h.Tokens.AuthorizationContext(ctx, body.ReturnURL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not resolve authorization context")
	}

	session, err := h.Tokens.PasswordSignIn(ctx, body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "could not sign in")
	}

	if authzCtx == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	if h.OnSignIn != nil {
		h.OnSignIn(ctx, *session, authzCtx.ClientID)
	}

	return c.JSON(loginResponse{RedirectURL: body.ReturnURL, IsOK: true})
}

// Logout handles GET /api/authenticate/logout?logoutId=.
func (h *Handler) Logout(c *fiber.Ctx) error {
	out, err := h.Tokens.LogoutContext(c.UserContext(), c.Query("logoutId"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not resolve logout context")
	}

	return c.JSON(logoutResponse{
		ShowSignoutPrompt:     out.ShowSignoutPrompt,
		ClientName:            out.ClientName,
		PostLogoutRedirectURI: out.PostLogoutRedirectURI,
		SignOutIFrameURL:      out.SignOutIFrameURL,
		LogoutID:              out.LogoutID,
	})
}
