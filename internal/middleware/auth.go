// Package middleware provides HTTP middleware: logging, tracing, metrics, sessions and rate limiting.
package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"smartbarangay/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "smartbarangay-api"
	tokenAudience = "smartbarangay-client"
)

// SessionClaims are the JWT claims of a portal session.
type SessionClaims struct {
	Role models.Role `json:"role"`
	Name string      `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions returns a Sessions signing with secret; tokens live for ttl.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the viewer.
func (s *Sessions) Issue(viewer models.Viewer, name string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := s.now()
	claims := SessionClaims{
		Role: viewer.Role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(viewer.ID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateJTI(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies a token and returns the viewer it was issued to.
func (s *Sessions) Parse(tokenString string) (models.Viewer, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return models.Viewer{}, models.NewUnauthorizedError("Invalid or expired token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return models.Viewer{}, models.NewUnauthorizedError("Invalid user ID in token")
	}
	if claims.Role != models.RoleCitizen && claims.Role != models.RoleAdmin {
		return models.Viewer{}, models.NewUnauthorizedError("Invalid role in token")
	}

	return models.Viewer{ID: uint(userID), Role: claims.Role}, nil
}

// AuthRequired enforces a valid session. Websocket paths may pass the token as ?token=
// because browsers cannot set headers on the upgrade request.
func (s *Sessions) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get("Authorization"))
		if tokenString == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		viewer, err := s.Parse(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		c.Locals("userID", viewer.ID)
		c.Locals("role", viewer.Role)
		ctx := context.WithValue(c.UserContext(), UserIDKey, viewer.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// AdminRequired rejects non-admin sessions with 403. Must be placed after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer, ok := ViewerFrom(c)
		if !ok || !viewer.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// ViewerFrom returns the authenticated viewer stored by AuthRequired.
func ViewerFrom(c *fiber.Ctx) (models.Viewer, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return models.Viewer{}, false
	}
	role, _ := c.Locals("role").(models.Role)
	return models.Viewer{ID: userID, Role: role}, true
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}
