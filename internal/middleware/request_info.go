package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"picture-catalog/internal/domain"
)

// RequestInfo stores the caller address and user agent in the request
// context, where the audit trail picks them up. Behind Cloudflare the
// client address comes from CF-Connecting-IP.
func RequestInfo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := strings.TrimSpace(c.Get("CF-Connecting-IP"))
		if ip == "" {
			ip = c.IP()
		}

		info := domain.RequestInfo{
			IPAddress: ip,
			UserAgent: c.Get(fiber.HeaderUserAgent),
		}
		c.SetUserContext(domain.WithRequestInfo(c.UserContext(), info))
		return c.Next()
	}
}
