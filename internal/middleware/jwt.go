package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type userIDKey struct{}

var userKey = userIDKey{}

// OptionalAuth attaches the authenticated user to the request when a valid
// bearer token is present. Anonymous requests pass through untouched, since
// submissions do not require an account.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		authorization := c.Get("Authorization")
		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return c.Next()
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return c.Next()
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Next()
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Next()
		}

		if userID := extractUserIDFromClaims(claims); userID != "" {
			c.Locals("user_id", userID)
			c.SetUserContext(ContextWithUser(c.UserContext(), userID))
		}

		return c.Next()
	}
}

// ContextWithUser attaches the user identifier to the provided context.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey, strings.TrimSpace(userID))
}

// UserIDFromContext extracts the authenticated user identifier, if any.
func UserIDFromContext(ctx context.Context) *string {
	if ctx == nil {
		return nil
	}
	if value := ctx.Value(userKey); value != nil {
		if id, ok := value.(string); ok && id != "" {
			return &id
		}
	}
	return nil
}

func extractUserIDFromClaims(claims jwt.MapClaims) string {
	keys := []string{"sub", "user_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if id, ok := value.(string); ok && strings.TrimSpace(id) != "" {
				return strings.TrimSpace(id)
			}
		}
	}
	return ""
}
