package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/tripdesk/internal/service"
	"github.com/mansoorceksport/tripdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminApp(tokens *service.AdminTokenService, verifier FirebaseTokenVerifier, allowed []string) *fiber.App {
	app := fiber.New()
	app.Get("/admin", AdminAuth(tokens, verifier, allowed), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"subject": c.Locals(AdminSubjectKey),
			"email":   c.Locals(AdminEmailKey),
		})
	})
	return app
}

func doAdmin(t *testing.T, app *fiber.App, authorization string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/admin", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAdminAuth_LocalToken(t *testing.T) {
	tokens := service.NewAdminTokenService("test-secret")
	app := newAdminApp(tokens, nil, nil)

	token, err := tokens.Issue("cron", "ops@example.com", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, doAdmin(t, app, "Bearer "+token))
	assert.Equal(t, fiber.StatusUnauthorized, doAdmin(t, app, ""))
	assert.Equal(t, fiber.StatusUnauthorized, doAdmin(t, app, "Bearer garbage"))

	foreign, err := service.NewAdminTokenService("other-secret").Issue("cron", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, doAdmin(t, app, "Bearer "+foreign))
}

func TestAdminAuth_Firebase(t *testing.T) {
	verifier := testutil.NewMockAuthClient()
	verifier.AddMockUser("owner-token", "uid-1", "Owner@Example.com")
	verifier.AddMockUser("stranger-token", "uid-2", "someone@example.com")

	open := newAdminApp(nil, verifier, nil)
	assert.Equal(t, fiber.StatusOK, doAdmin(t, open, "Bearer stranger-token"))
	assert.Equal(t, fiber.StatusUnauthorized, doAdmin(t, open, "Bearer unknown"))

	restricted := newAdminApp(nil, verifier, []string{"owner@example.com"})
	assert.Equal(t, fiber.StatusOK, doAdmin(t, restricted, "Bearer owner-token"))
	assert.Equal(t, fiber.StatusForbidden, doAdmin(t, restricted, "Bearer stranger-token"))

	verifier.ValidTokens["owner-token"].Claims["email_verified"] = false
	assert.Equal(t, fiber.StatusForbidden, doAdmin(t, restricted, "Bearer owner-token"))
}

func TestAdminAuth_LocalTokenTakesPrecedence(t *testing.T) {
	tokens := service.NewAdminTokenService("test-secret")
	verifier := testutil.NewMockAuthClient()
	app := newAdminApp(tokens, verifier, []string{"owner@example.com"})

	token, err := tokens.Issue("seed-script", "", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, doAdmin(t, app, "Bearer "+token))
}
