package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wavenote-dev/community-api/internal/models"
	appErrors "github.com/wavenote-dev/community-api/pkg/errors"
	"github.com/wavenote-dev/community-api/pkg/response"
)

// RequireReviewer restricts a route to accounts holding the reviewer
// capability. Must run after JWT.
func RequireReviewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if !claims.CanReview {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "reviewer capability required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
