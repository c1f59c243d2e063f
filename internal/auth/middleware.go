package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/tech-arch1tect/pawash/internal/common"
	"github.com/tech-arch1tect/pawash/internal/logging"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenMiddleware requires "Authorization: Bearer <accessToken>" on every
// request. An empty accessToken rejects everything.
func TokenMiddleware(accessToken string, logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sourceIP := c.RealIP()

			if accessToken == "" {
				logger.Error("Authentication failed - token not configured",
					zap.String("source_ip", sourceIP))
				return common.SendInternalError(c, "Access token not configured")
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				logger.Warn("Authentication failed - missing authorization header",
					zap.String("source_ip", sourceIP))
				return common.SendUnauthorized(c, "Authorization header required")
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				logger.Warn("Authentication failed - invalid authorization format",
					zap.String("source_ip", sourceIP))
				return common.SendUnauthorized(c, "Bearer token required")
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(accessToken)) != 1 {
				logger.Warn("Authentication failed - invalid token",
					zap.String("source_ip", sourceIP),
					zap.String("token_hash", HashToken(token)))
				return common.SendUnauthorized(c, "Invalid token")
			}

			logger.Debug("Authentication successful",
				zap.String("source_ip", sourceIP),
				zap.String("token_hash", HashToken(token)))
			return next(c)
		}
	}
}

// HashToken returns a short, log-safe fingerprint of token.
func HashToken(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])[:16]
}
