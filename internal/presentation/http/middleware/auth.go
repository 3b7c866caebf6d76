package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sangkips/receipts-api/internal/infrastructure/logger"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/response"
	"github.com/sangkips/receipts-api/pkg/utils"
)

// Gin context keys set by AuthMiddleware
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	IsStaffKey   = "user_is_staff"
)

// AuthMiddleware creates a JWT authentication middleware
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(IsStaffKey, claims.IsStaff)

		// Tag the request logger with the caller
		ctx := c.Request.Context()
		log := logger.FromContext(ctx).With(zap.String("user_id", claims.UserID.String()))
		c.Request = c.Request.WithContext(logger.WithContext(ctx, log))

		c.Next()
	}
}
