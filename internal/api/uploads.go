package api

import (
	"net/http"

	"trailquest/internal/middleware"
	"trailquest/internal/service"
	"trailquest/pkg/auth"
	"trailquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type uploadRoutes struct {
	uq service.UploadQueueI
	hs service.HikeServiceI
}

func NewUploadRoutes(handler *gin.RouterGroup, uq service.UploadQueueI, hs service.HikeServiceI, a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &uploadRoutes{uq: uq, hs: hs}
	h := handler.Group("/hikes/:hike_id/uploads")
	h.Use(a.TelegramAuthMiddleware(), authz.HikeOwner())
	{
		h.GET("", r.ListUploads)
		h.POST("/sync", r.SyncHike)
		h.POST("/:item_id/sync", r.SyncItem)
	}
}

type UploadListResponse struct {
	Items   []UploadItemResponse `json:"items"`
	Pending int                  `json:"pending"`
}

func (r *uploadRoutes) ListUploads(c *gin.Context) {
	log := logger.Logger()

	hikeID := c.Param("hike_id")
	items, err := r.uq.List(c.Request.Context(), hikeID)
	if err != nil {
		log.Error("failed to list uploads", zap.String("hike_id", hikeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list uploads"})
		return
	}

	resp := UploadListResponse{Items: make([]UploadItemResponse, 0, len(items))}
	for i := range items {
		resp.Items = append(resp.Items, *toUploadItemResponse(&items[i]))
		if !items[i].Synced {
			resp.Pending++
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (r *uploadRoutes) SyncHike(c *gin.Context) {
	log := logger.Logger()

	hikeID := c.Param("hike_id")
	if err := r.uq.SyncHike(c.Request.Context(), hikeID, r.hs.ProgressSink(hikeID)); err != nil {
		log.Error("failed to sync uploads", zap.String("hike_id", hikeID), zap.Error(err))
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "uploads synced",
		"hike_id": hikeID,
	})
}

func (r *uploadRoutes) SyncItem(c *gin.Context) {
	log := logger.Logger()

	hikeID := c.Param("hike_id")
	itemID := c.Param("item_id")

	items, err := r.uq.List(c.Request.Context(), hikeID)
	if err != nil {
		log.Error("failed to list uploads", zap.String("hike_id", hikeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list uploads"})
		return
	}
	found := false
	for _, item := range items {
		if item.ID == itemID {
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "upload item not found"})
		return
	}

	if err := r.uq.SyncItem(c.Request.Context(), itemID, r.hs.ProgressSink(hikeID)); err != nil {
		log.Error("failed to sync upload",
			zap.String("hike_id", hikeID),
			zap.String("item_id", itemID),
			zap.Error(err))
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "upload synced",
		"item_id": itemID,
	})
}
