package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/kestrelworks/bootseq/pkg/logging"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleLogin(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		s.log.Warn("login failed", logging.String("username", req.Username))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	pair, err := s.jwt.IssueTokens(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "token generation failed"})
	}

	s.log.Info("login", logging.String("username", user.Username), logging.String("role", user.Role))
	return c.JSON(fiber.Map{
		"token":         pair.Token,
		"refresh_token": pair.RefreshToken,
		"expires_in":    int(s.jwt.TokenTTL().Seconds()),
	})
}

func (s *Server) handleRefresh(c fiber.Ctx) error {
	var req refreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	userID, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid refresh token"})
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown user"})
	}

	pair, err := s.jwt.IssueTokens(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "token generation failed"})
	}
	return c.JSON(fiber.Map{
		"token":         pair.Token,
		"refresh_token": pair.RefreshToken,
		"expires_in":    int(s.jwt.TokenTTL().Seconds()),
	})
}
