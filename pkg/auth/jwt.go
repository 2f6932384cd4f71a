// Package auth provides JWT token management and an in-memory user
// store for the bootseq API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrInvalidRole   = errors.New("invalid role")
	ErrShortSecret   = errors.New("secret must be at least 32 characters")
)

// Roles, least to most privileged.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

var roleRank = map[string]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// ValidRole reports whether role names a known role.
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// RoleAtLeast reports whether role carries at least the privileges of min.
// Unknown roles carry no privileges.
func RoleAtLeast(role, min string) bool {
	return roleRank[role] >= roleRank[min] && roleRank[role] > 0
}

// Claims carries the identity extracted from a validated token.
type Claims struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// JWTManager signs and validates HS256 tokens.
type JWTManager struct {
	secret     []byte
	tokenTTL   time.Duration
	refreshTTL time.Duration
}

// NewJWTManager creates a JWT manager. The secret must be at least
// 32 characters.
func NewJWTManager(secret string, tokenTTL, refreshTTL time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	return &JWTManager{
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// TokenTTL returns the configured access token lifetime.
func (m *JWTManager) TokenTTL() time.Duration {
	return m.tokenTTL
}

// IssueTokens generates an access and a refresh token for user.
func (m *JWTManager) IssueTokens(user *User) (TokenPair, error) {
	token, err := m.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.GenerateRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Token: token, RefreshToken: refresh}, nil
}

// GenerateToken signs an access token for the given identity.
func (m *JWTManager) GenerateToken(userID, username, role string) (string, error) {
	if userID == "" || username == "" {
		return "", fmt.Errorf("%w: empty identity", ErrInvalidClaims)
	}
	if !ValidRole(role) {
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"role":     role,
		"iat":      now.Unix(),
		"exp":      now.Add(m.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies an access token and returns its claims.
func (m *JWTManager) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}

	userID, err := stringClaim(claims, "user_id")
	if err != nil {
		return nil, err
	}
	username, err := stringClaim(claims, "username")
	if err != nil {
		return nil, err
	}
	role, err := stringClaim(claims, "role")
	if err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %s", ErrInvalidClaims, role)
	}
	issuedAt, err := timeClaim(claims, "iat")
	if err != nil {
		return nil, err
	}
	expiresAt, err := timeClaim(claims, "exp")
	if err != nil {
		return nil, err
	}

	return &Claims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// GenerateRefreshToken signs a refresh token for userID.
func (m *JWTManager) GenerateRefreshToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty identity", ErrInvalidClaims)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    "refresh",
		"iat":     now.Unix(),
		"exp":     now.Add(m.refreshTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// ValidateRefreshToken verifies a refresh token and returns the userID
// it was issued to. Access tokens are rejected.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (string, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return "", err
	}

	if kind, _ := claims["type"].(string); kind != "refresh" {
		return "", fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return stringClaim(claims, "user_id")
}

func (m *JWTManager) parse(tokenString string) (jwt.MapClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) (string, error) {
	v, ok := claims[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidClaims, key)
	}
	return v, nil
}

func timeClaim(claims jwt.MapClaims, key string) (time.Time, error) {
	v, ok := claims[key].(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: missing %s", ErrInvalidClaims, key)
	}
	return time.Unix(int64(v), 0), nil
}
