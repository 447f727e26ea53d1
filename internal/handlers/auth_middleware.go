package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const ownerIDKey = "ownerId"

// NewAuthMiddleware verifies an HS256 bearer token and stores its subject
// as the owner of everything the request touches.
func NewAuthMiddleware(secret, issuer string) fiber.Handler {
	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		scheme, tokenStr, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenStr) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		var claims jwt.RegisteredClaims
		token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), &claims, func(*jwt.Token) (any, error) {
			return key, nil
		}, opts...)
		if err != nil || !token.Valid || claims.Subject == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(ownerIDKey, claims.Subject)
		return c.Next()
	}
}

func ownerID(c *fiber.Ctx) string {
	id, _ := c.Locals(ownerIDKey).(string)
	return id
}
