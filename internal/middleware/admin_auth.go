package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/tripdesk/internal/service"
)

// Context keys for storing admin identity
const (
	AdminSubjectKey = "adminSubject"
	AdminEmailKey   = "adminEmail"
)

// AdminAuth accepts either a locally issued admin token or a Firebase ID token.
// Either source may be nil. When allowedEmails is non-empty, Firebase users
// must have a verified email from that list.
func AdminAuth(tokens *service.AdminTokenService, verifier FirebaseTokenVerifier, allowedEmails []string) fiber.Handler {
	allowed := make(map[string]bool, len(allowedEmails))
	for _, e := range allowedEmails {
		allowed[strings.ToLower(strings.TrimSpace(e))] = true
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		// Extract token (format: "Bearer <token>")
		tokenString := authHeader
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			tokenString = authHeader[7:]
		}

		if tokens != nil {
			if claims, err := tokens.Parse(tokenString); err == nil {
				c.Locals(AdminSubjectKey, claims.Subject)
				c.Locals(AdminEmailKey, claims.Email)
				return c.Next()
			}
		}

		if verifier == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		token, err := verifier.VerifyIDToken(c.UserContext(), tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		email, _ := token.Claims["email"].(string)
		verified, _ := token.Claims["email_verified"].(bool)
		if len(allowed) > 0 && (!verified || !allowed[strings.ToLower(email)]) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		c.Locals(AdminSubjectKey, token.UID)
		c.Locals(AdminEmailKey, email)
		return c.Next()
	}
}
