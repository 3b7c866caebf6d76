package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/internal/infrastructure/logger"
)

// BusinessIDKey is the gin context key holding the caller's business id
const BusinessIDKey = "business_id"

// BusinessContext resolves the authenticated caller's business and stores
// its id in the gin context. Callers without a business pass through with
// uuid.Nil; the services decide what that means.
func BusinessContext(businesses repository.BusinessRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := c.Get(UserIDKey)
		if !ok {
			c.Next()
			return
		}
		id, ok := userID.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		business, err := businesses.GetByOwner(c.Request.Context(), id)
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("failed to resolve business", zap.Error(err))
		}
		if business != nil {
			c.Set(BusinessIDKey, business.ID)
		}
		c.Next()
	}
}

// GetBusinessID retrieves the business id from gin context
func GetBusinessID(c *gin.Context) uuid.UUID {
	businessID, exists := c.Get(BusinessIDKey)
	if !exists {
		return uuid.Nil
	}
	id, ok := businessID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
