package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/juriscorrect/juriscorrect-api/internal/middleware"
)

func authApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(middleware.OptionalAuth(secret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if userID := middleware.UserIDFromContext(c.UserContext()); userID != nil {
			return c.SendString(*userID)
		}
		return c.SendString("anonymous")
	})
	return app
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	app := authApp("secret")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	require.Equal(t, "anonymous", body)
}

func TestOptionalAuthBindsValidToken(t *testing.T) {
	app := authApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", jwt.MapClaims{"sub": "user-7"}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "user-7", readBody(t, resp))
}

func TestOptionalAuthIgnoresInvalidToken(t *testing.T) {
	app := authApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", jwt.MapClaims{"sub": "user-7"}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "anonymous", readBody(t, resp))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
