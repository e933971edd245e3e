package middleware

import (
	"errors"
	"fmt"
	"strings"

	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "caller"

// Claims are issued by the identity provider. UserID and Role identify the
// caller; the registered claims carry expiry.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
}

type JWTAuth struct {
	secretKey []byte
	log       *logger.Logger
}

func NewJWTAuth(secret string, log *logger.Logger) *JWTAuth {
	if secret == "" {
		log.Warn("JWT secret is empty, every request will be rejected")
	}
	return &JWTAuth{
		secretKey: []byte(secret),
		log:       log,
	}
}

func (a *JWTAuth) VerifyToken(tokenString string) (*Claims, error) {
	if len(a.secretKey) == 0 {
		return nil, errors.New("token verification is not configured")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.secretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, errors.New("token is missing user id or role")
	}
	return claims, nil
}

// Handler rejects requests without a valid bearer token and stores the
// resulting models.Caller for the handlers.
func (a *JWTAuth) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := a.VerifyToken(tokenString)
		if err != nil {
			a.log.Debug("Token validation failed", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(callerKey, models.Caller{UID: claims.UserID, Role: claims.Role})
		return c.Next()
	}
}

// CallerFrom returns the identity stored by Handler.
func CallerFrom(c fiber.Ctx) (models.Caller, bool) {
	caller, ok := c.Locals(callerKey).(models.Caller)
	return caller, ok
}
