package middleware

import (
	"mime"

	"github.com/gofiber/fiber/v2"
)

// RequireContentType rejects requests whose media type is not mediaType with 415. Parameters
// such as charset are allowed.
func (m *Middleware) RequireContentType(mediaType string) fiber.Handler {
	log := m.log.Function("RequireContentType")

	return func(c *fiber.Ctx) error {
		parsed, _, err := mime.ParseMediaType(c.Get(fiber.HeaderContentType))
		if err != nil || parsed != mediaType {
			log.Info("unsupported media type", "contentType", c.Get(fiber.HeaderContentType), "path", c.Path())
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported Media Type. Expected '" + mediaType + "'",
			})
		}

		return c.Next()
	}
}
