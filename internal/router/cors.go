package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CorsMiddleware allows the given origins; an empty list falls back to *.
// Credentialed requests are only enabled for an explicit allow-list, since
// fiber refuses credentials together with a wildcard origin.
func CorsMiddleware(origins string) fiber.Handler {
	allowCredentials := true
	if origins == "" {
		origins = "*"
		allowCredentials = false
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: allowCredentials,
	})
}
