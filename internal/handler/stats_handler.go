package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/pkg/response"
)

type statsService interface {
	Platform(ctx context.Context) (*models.PlatformStats, error)
	Recent(ctx context.Context, limit int) ([]models.Paper, error)
}

// StatsHandler serves the public landing page aggregates.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(svc statsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Platform godoc
// @Summary Platform statistics
// @Description Totals across the approved catalog; degrades to zeros when the store is unavailable
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Platform(c *gin.Context) {
	stats, err := h.service.Platform(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// Recent godoc
// @Summary Recently approved papers
// @Tags Stats
// @Produce json
// @Param limit query int false "Maximum papers to return"
// @Success 200 {object} response.Envelope
// @Router /papers/recent [get]
func (h *StatsHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	papers, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, papers, nil)
}
