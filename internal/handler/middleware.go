package handler

import (
	"errors"
	"strings"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	ctxUserIDKey = "user_id"
	ctxClaimsKey = "claims"
)

// AuthMiddleware verifies the bearer token against the shared HS256 secret
// and lazily provisions the profile row for first-time identities.
func AuthMiddleware(jwtSecret string, profiles interfaces.ProfileRepository, logger *zap.Logger) gin.HandlerFunc {
	secret := []byte(jwtSecret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logger.Warn("Invalid Authorization header format")
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		claims := &models.Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, models.ErrTokenInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			if errors.Is(err, jwt.ErrTokenExpired) {
				handleServiceError(c, models.ErrTokenExpired)
				return
			}
			logger.Warn("Access token verification failed", zap.Error(err))
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			logger.Warn("Token subject is not a UUID", zap.Error(err), zap.String("subject", claims.Subject))
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		if err := profiles.EnsureExists(c.Request.Context(), userID, claims.Email); err != nil {
			logger.Error("Failed to ensure profile exists", zap.Error(err), zap.String("userID", userID.String()))
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("success").Inc()
		c.Set(ctxUserIDKey, userID)
		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the user identity when a valid bearer token
// is present and lets the request through anonymously otherwise. Used for
// error report ingest, which must accept crashes from logged-out clients.
func OptionalAuthMiddleware(jwtSecret string, profiles interfaces.ProfileRepository, logger *zap.Logger) gin.HandlerFunc {
	secret := []byte(jwtSecret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Next()
			return
		}

		claims := &models.Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, models.ErrTokenInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			logger.Debug("Ignoring invalid token on optional-auth route", zap.Error(err))
			c.Next()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.Next()
			return
		}

		if err := profiles.EnsureExists(c.Request.Context(), userID, claims.Email); err != nil {
			logger.Warn("Failed to ensure profile exists", zap.Error(err), zap.String("userID", userID.String()))
			c.Next()
			return
		}

		c.Set(ctxUserIDKey, userID)
		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}
