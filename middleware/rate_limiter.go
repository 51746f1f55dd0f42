package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures RateLimiter
type RateLimitConfig struct {
	Requests int // Allowed per Window and client; zero disables limiting
	Window   time.Duration
	Next     func(c *fiber.Ctx) bool // Skip limiting when it returns true
	KeyFunc  func(c *fiber.Ctx) string
}

// RateLimiter creates a rate limiting middleware keyed by client IP
func RateLimiter(cfg RateLimitConfig) fiber.Handler {
	if cfg.Requests <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *fiber.Ctx) string { return c.IP() }
	}

	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		clients = make(map[string]*client)
		mu      sync.Mutex
	)

	// Forget idle clients
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			for key, c := range clients {
				if time.Since(c.lastSeen) > 2*cfg.Window+10*time.Minute {
					delete(clients, key)
				}
			}
			mu.Unlock()
		}
	}()

	every := rate.Every(cfg.Window / time.Duration(cfg.Requests))

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		key := cfg.KeyFunc(c)

		mu.Lock()
		cl, exists := clients[key]
		if !exists {
			cl = &client{limiter: rate.NewLimiter(every, cfg.Requests)}
			clients[key] = cl
		}
		cl.lastSeen = time.Now()
		mu.Unlock()

		if !cl.limiter.Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		}

		return c.Next()
	}
}
