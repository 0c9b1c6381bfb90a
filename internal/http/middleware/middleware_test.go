package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papersummary/internal/config"
	"papersummary/internal/infra/ratelimit"
)

func limitedConfig(limit int) config.Config {
	cfg := config.Default()
	cfg.RateLimiter.Enabled = true
	cfg.RateLimiter.UserLimit = limit
	cfg.RateLimiter.Interval = time.Hour
	return cfg
}

func TestRegister_AddsHealthAndRequestID(t *testing.T) {
	app := fiber.New()
	Register(app, config.Default(), nil)
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString(RequestID(c)) })

	for _, path := range []string{"/ops/health", "/ops/ready"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s request failed: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected %s 200, got %d", path, resp.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	id := resp.Header.Get("X-Request-Id")
	require.NotEmpty(t, id)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, id, string(body))
}

func TestRegister_CORSPreflight(t *testing.T) {
	app := fiber.New()
	Register(app, limitedConfig(1), nil)
	app.Post("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEqual(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestUserRateLimit_Enforced(t *testing.T) {
	app := fiber.New()
	Register(app, limitedConfig(1), nil)
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	resp1, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp1.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp1.StatusCode)
	}

	resp2, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp2.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp2.StatusCode)
	}

	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body))
	assert.Equal(t, fiber.StatusTooManyRequests, body.Error.Code)
	assert.Equal(t, "Too Many Requests", body.Error.Message)
}

func TestUserRateLimit_Disabled(t *testing.T) {
	cfg := limitedConfig(1)
	cfg.RateLimiter.Enabled = false
	app := fiber.New()
	Register(app, cfg, nil)
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestUserRateLimit_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := ratelimit.NewStore(ratelimit.RedisConfig{Addr: mr.Addr()})

	app := fiber.New()
	Register(app, limitedConfig(2), store)
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.NotEmpty(t, mr.Keys())
}
