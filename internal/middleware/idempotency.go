package middleware

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader   = "X-Correlation-ID"
	idempotencyInFlight = 30 * time.Second
)

// IdempotencyMiddleware replays the response of a mutating request when the
// same admin sends the same X-Correlation-ID again within ttl. A duplicate arriving while
// the first request is still running gets 409.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Only apply to mutating methods
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(idempotencyHeader)
		if correlationID == "" {
			// No correlation ID = no idempotency check
			return c.Next()
		}

		// Scoped per admin so two callers reusing an id never see each other's responses
		subject, _ := c.Locals(AdminSubjectKey).(string)
		if subject == "" {
			subject = "anonymous"
		}
		key := fmt.Sprintf("idempotency:%s:%s:%s:%s", c.Method(), c.Path(), subject, correlationID)
		lockKey := key + ":lock"
		ctx := c.UserContext()

		// Check if we have a cached response
		if replayed, err := replay(ctx, c, redisClient, key); err != nil {
			log.Printf("Warning: idempotency lookup failed: %v", err)
			return c.Next()
		} else if replayed {
			return nil
		}

		acquired, err := redisClient.SetNX(ctx, lockKey, "1", idempotencyInFlight).Result()
		if err != nil {
			log.Printf("Warning: idempotency lock failed: %v", err)
			return c.Next()
		}
		if !acquired {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A request with this correlation id is already in progress",
			})
		}
		defer redisClient.Del(context.Background(), lockKey)

		// Process the request
		if err := c.Next(); err != nil {
			return err
		}

		// Cache successful responses (2xx status codes)
		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			body := append([]byte(nil), c.Response().Body()...)
			storeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := redisClient.TxPipelined(storeCtx, func(pipe redis.Pipeliner) error {
				pipe.HSet(storeCtx, key, "status", statusCode, "body", body)
				pipe.Expire(storeCtx, key, ttl)
				return nil
			})
			if err != nil {
				log.Printf("Warning: failed to cache idempotent response: %v", err)
			}
		}

		return nil
	}
}

func replay(ctx context.Context, c *fiber.Ctx, redisClient *redis.Client, key string) (bool, error) {
	cached, err := redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return false, err
	}
	body, ok := cached["body"]
	if !ok {
		return false, nil
	}
	status, err := strconv.Atoi(cached["status"])
	if err != nil {
		status = fiber.StatusOK
	}

	c.Set("X-Idempotent-Replay", "true")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return true, c.Status(status).Send([]byte(body))
}
