package api

import (
	"net/http"
	"time"

	"trailquest/internal/middleware"
	"trailquest/internal/model"
	"trailquest/internal/service"
	"trailquest/pkg/auth"
	"trailquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type hikeRoutes struct {
	hs service.HikeServiceI
	a  *auth.TelegramAuth
}

func NewHikeRoutes(handler *gin.RouterGroup, hs service.HikeServiceI, a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &hikeRoutes{hs: hs, a: a}
	h := handler.Group("/hikes")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("", r.StartHike)

		owned := h.Group("/:hike_id")
		owned.Use(authz.HikeOwner())
		owned.GET("", r.GetSnapshot)
		owned.DELETE("", r.EndHike)
		owned.GET("/summary", r.GetSummary)
		owned.POST("/positions", r.PushPosition)
		owned.POST("/captures", r.Capture)
		owned.POST("/identifications", r.Identify)
		owned.GET("/quests", r.GetQuests)
	}
}

type StartHikeRequest struct {
	HikeID  string   `json:"hike_id"`
	TrailID string   `json:"trail_id" binding:"required"`
	Lat     *float64 `json:"lat" binding:"required"`
	Lng     *float64 `json:"lng" binding:"required"`
}

type PositionRequest struct {
	Lat        *float64   `json:"lat" binding:"required"`
	Lng        *float64   `json:"lng" binding:"required"`
	Altitude   *float64   `json:"altitude"`
	Accuracy   *float64   `json:"accuracy"`
	RecordedAt *time.Time `json:"recorded_at"`
}

func (p PositionRequest) toModel() model.Position {
	pos := model.Position{
		LatLng:   model.LatLng{Lat: *p.Lat, Lng: *p.Lng},
		Altitude: p.Altitude,
		Accuracy: p.Accuracy,
	}
	if p.RecordedAt != nil {
		pos.RecordedAt = p.RecordedAt.UTC()
	}
	return pos
}

func (r *hikeRoutes) StartHike(c *gin.Context) {
	log := logger.Logger()

	var req StartHikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := telegramUser(c)
	if !ok {
		return
	}

	snap, err := r.hs.StartHike(c.Request.Context(), service.StartHikeRequest{
		HikeID:   req.HikeID,
		HikerID:  user.ID,
		TrailID:  req.TrailID,
		Location: model.LatLng{Lat: *req.Lat, Lng: *req.Lng},
	})
	if err != nil {
		log.Error("failed to start hike",
			zap.Int64("telegram_id", user.ID),
			zap.String("trail_id", req.TrailID),
			zap.Error(err))
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, toSnapshotResponse(snap))
}

func (r *hikeRoutes) EndHike(c *gin.Context) {
	log := logger.Logger()

	hikeID := c.Param("hike_id")
	if err := r.hs.EndHike(c.Request.Context(), hikeID); err != nil {
		log.Error("failed to end hike", zap.String("hike_id", hikeID), zap.Error(err))
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "hike ended",
		"hike_id": hikeID,
	})
}

func (r *hikeRoutes) GetSnapshot(c *gin.Context) {
	hikeID := c.Param("hike_id")

	snap, err := r.hs.Snapshot(c.Request.Context(), hikeID)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, toSnapshotResponse(snap))
}

func (r *hikeRoutes) GetSummary(c *gin.Context) {
	log := logger.Logger()

	hikeID := c.Param("hike_id")
	summary, err := r.hs.Summary(c.Request.Context(), hikeID)
	if err != nil {
		log.Error("failed to get hike summary", zap.String("hike_id", hikeID), zap.Error(err))
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, toSummaryResponse(summary))
}

func (r *hikeRoutes) PushPosition(c *gin.Context) {
	log := logger.Logger()

	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	hikeID := c.Param("hike_id")
	if err := r.hs.PushPosition(c.Request.Context(), hikeID, req.toModel()); err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "position accepted"})
}

func (r *hikeRoutes) GetQuests(c *gin.Context) {
	hikeID := c.Param("hike_id")

	snap, err := r.hs.Snapshot(c.Request.Context(), hikeID)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, toQuestResponse(snap.Quest))
}
