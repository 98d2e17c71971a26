package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/tripdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotentApp(t *testing.T) (*fiber.App, *int) {
	t.Helper()
	client, _ := testutil.SetupRedis(t)
	calls := 0

	app := fiber.New()
	app.Use(IdempotencyMiddleware(client, time.Minute))
	app.Post("/members", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": calls})
	})
	app.Post("/full", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "full"})
	})
	app.Delete("/members", func(c *fiber.Ctx) error {
		calls++
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, &calls
}

func post(t *testing.T, app *fiber.App, method, path, correlationID string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header.Get("X-Idempotent-Replay")
}

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	app, calls := newIdempotentApp(t)

	status, body, replay := post(t, app, "POST", "/members", "abc")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"call": 1}`, body)
	assert.Empty(t, replay)

	status, body, replay = post(t, app, "POST", "/members", "abc")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"call": 1}`, body)
	assert.Equal(t, "true", replay)
	assert.Equal(t, 1, *calls)

	_, body, _ = post(t, app, "POST", "/members", "other")
	assert.JSONEq(t, `{"call": 2}`, body)
}

func TestIdempotency_SkipsWithoutHeaderAndForErrors(t *testing.T) {
	app, calls := newIdempotentApp(t)

	post(t, app, "POST", "/members", "")
	post(t, app, "POST", "/members", "")
	assert.Equal(t, 2, *calls)

	status, _, _ := post(t, app, "POST", "/full", "retry-me")
	assert.Equal(t, fiber.StatusConflict, status)
	_, _, replay := post(t, app, "POST", "/full", "retry-me")
	assert.Empty(t, replay, "failed responses are not cached")
	assert.Equal(t, 4, *calls)

	post(t, app, "DELETE", "/members", "del")
	post(t, app, "DELETE", "/members", "del")
	assert.Equal(t, 6, *calls)
}

func TestIdempotency_DuplicateInFlight(t *testing.T) {
	client, mr := testutil.SetupRedis(t)
	app := fiber.New()
	app.Use(IdempotencyMiddleware(client, time.Minute))
	app.Post("/members", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	// Simulate a first request still being processed
	require.NoError(t, mr.Set("idempotency:POST:/members:anonymous:busy:lock", "1"))

	status, _, _ := post(t, app, "POST", "/members", "busy")
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestIdempotency_ScopedPerAdmin(t *testing.T) {
	client, _ := testutil.SetupRedis(t)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(AdminSubjectKey, c.Get("X-Admin"))
		return c.Next()
	})
	app.Use(IdempotencyMiddleware(client, time.Minute))
	app.Post("/members", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"admin": c.Locals(AdminSubjectKey)})
	})

	send := func(admin string) (string, string) {
		req := httptest.NewRequest("POST", "/members", strings.NewReader(`{}`))
		req.Header.Set("X-Correlation-ID", "shared")
		req.Header.Set("X-Admin", admin)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body), resp.Header.Get("X-Idempotent-Replay")
	}

	body, _ := send("alice")
	assert.JSONEq(t, `{"admin": "alice"}`, body)

	body, replay := send("bob")
	assert.JSONEq(t, `{"admin": "bob"}`, body)
	assert.Empty(t, replay)

	body, replay = send("alice")
	assert.JSONEq(t, `{"admin": "alice"}`, body)
	assert.Equal(t, "true", replay)
}
