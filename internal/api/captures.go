package api

import (
	"net/http"

	"trailquest/internal/model"
	"trailquest/internal/service"
	"trailquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MediaRequest struct {
	LocalRef string  `json:"local_ref" binding:"required"`
	Kind     string  `json:"kind" binding:"omitempty,oneof=photo video audio"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"`
}

func (m *MediaRequest) toModel() *model.MediaInput {
	if m == nil {
		return nil
	}
	return &model.MediaInput{
		LocalRef: m.LocalRef,
		Kind:     model.MediaKind(m.Kind),
		Width:    m.Width,
		Height:   m.Height,
		Duration: m.Duration,
	}
}

type IdentificationRequest struct {
	Name     string        `json:"name" binding:"required"`
	Category string        `json:"category"`
	Rarity   string        `json:"rarity" binding:"omitempty,oneof=common uncommon rare legendary"`
	Photo    *MediaRequest `json:"photo"`
}

type CaptureRequest struct {
	DiscoveryID    string                 `json:"discovery_id" binding:"required"`
	Photo          *MediaRequest          `json:"photo"`
	Note           string                 `json:"note"`
	Identification *IdentificationRequest `json:"identification"`
}

func (r *hikeRoutes) Capture(c *gin.Context) {
	log := logger.Logger()

	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	captureReq := service.CaptureRequest{
		DiscoveryID: req.DiscoveryID,
		Photo:       req.Photo.toModel(),
		Note:        req.Note,
	}
	if req.Identification != nil {
		captureReq.Identification = &service.IdentificationInput{
			Name:     req.Identification.Name,
			Category: req.Identification.Category,
			Rarity:   model.Rarity(req.Identification.Rarity),
		}
	}

	hikeID := c.Param("hike_id")
	result, err := r.hs.Capture(c.Request.Context(), hikeID, captureReq)
	if err != nil {
		log.Error("failed to capture discovery",
			zap.String("hike_id", hikeID),
			zap.String("discovery_id", req.DiscoveryID),
			zap.Error(err))
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, toCaptureResultResponse(result))
}

func (r *hikeRoutes) Identify(c *gin.Context) {
	log := logger.Logger()

	var req IdentificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	hikeID := c.Param("hike_id")
	result, err := r.hs.Identify(c.Request.Context(), hikeID, service.IdentifyRequest{
		IdentificationInput: service.IdentificationInput{
			Name:     req.Name,
			Category: req.Category,
			Rarity:   model.Rarity(req.Rarity),
		},
		Photo: req.Photo.toModel(),
	})
	if err != nil {
		log.Error("failed to record identification",
			zap.String("hike_id", hikeID),
			zap.String("name", req.Name),
			zap.Error(err))
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, toCaptureResultResponse(result))
}
