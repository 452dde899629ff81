package middleware

import (
	"context"
	"errors"
	"net/http"

	"trailquest/internal/service"
	"trailquest/pkg/auth"
	"trailquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HikeOwnerLookup resolves which hiker a hike belongs to.
type HikeOwnerLookup interface {
	HikerID(ctx context.Context, hikeID string) (int64, error)
}

type Authorization struct {
	hikes HikeOwnerLookup
}

func NewAuthorization(hikes HikeOwnerLookup) *Authorization {
	return &Authorization{
		hikes: hikes,
	}
}

// HikeOwner lets a request through only when the authenticated hiker owns the
// hike named by the :hike_id path parameter.
func (a *Authorization) HikeOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		telegramUser, ok := auth.UserFromContext(c)
		if !ok {
			log.Error("telegram user data not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		hikeID := c.Param("hike_id")
		hikerID, err := a.hikes.HikerID(c.Request.Context(), hikeID)
		if err != nil {
			if errors.Is(err, service.ErrHikeNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "hike not found"})
				return
			}
			log.Error("failed to resolve hike owner",
				zap.String("hike_id", hikeID),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if hikerID != telegramUser.ID {
			log.Info("hike access attempt by another hiker",
				zap.String("hike_id", hikeID),
				zap.Int64("telegram_id", telegramUser.ID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "hike belongs to another hiker"})
			return
		}

		c.Next()
	}
}
