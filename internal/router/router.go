package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tomzre/futbal.mng.auth-identity/internal/authn"
	"github.com/tomzre/futbal.mng.auth-identity/internal/registration"
)

type Router struct {
	AccountHandler      *registration.Handler
	AuthenticateHandler *authn.Handler
	RegisterRateLimit   fiber.Handler
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	if r.AccountHandler != nil {
		if r.RegisterRateLimit != nil {
			app.Post("/api/account", r.RegisterRateLimit, r.AccountHandler.Register)
		} else {
			app.Post("/api/account", r.AccountHandler.Register)
		}
	}

	if r.AuthenticateHandler != nil {
		app.Post("/api/authenticate", r.AuthenticateHandler.Login)
		app.Get("/api/authenticate/logout", r.AuthenticateHandler.Logout)
	}
}
