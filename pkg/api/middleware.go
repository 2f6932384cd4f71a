package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/kestrelworks/bootseq/pkg/auth"
	"github.com/kestrelworks/bootseq/pkg/logging"
)

const claimsKey = "claims"

// requireRole validates the bearer token and enforces a minimum role.
func (s *Server) requireRole(minRole string) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "malformed authorization header"})
		}

		claims, err := s.jwt.ValidateToken(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		if !auth.RoleAtLeast(claims.Role, minRole) {
			s.log.Warn("role denied",
				logging.String("username", claims.Username),
				logging.String("role", claims.Role),
				logging.String("required", minRole))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// claims returns the identity the auth middleware stored, if any.
func requestClaims(c fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsKey).(*auth.Claims)
	return claims
}

// requestMetrics records a counter and latency histogram per request.
func (s *Server) requestMetrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		s.metrics.HTTPRequestsInFlight.Inc()
		err := c.Next()
		s.metrics.HTTPRequestsInFlight.Dec()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		s.metrics.RecordHTTPRequest(c.Method(), c.Path(), strconv.Itoa(status), time.Since(start))
		return err
	}
}
