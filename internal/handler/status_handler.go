package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wavenote-dev/community-api/internal/dto"
	"github.com/wavenote-dev/community-api/internal/models"
	"github.com/wavenote-dev/community-api/internal/service"
	appErrors "github.com/wavenote-dev/community-api/pkg/errors"
	"github.com/wavenote-dev/community-api/pkg/response"
)

// StatusHandler exposes the beatmapset status transition endpoints.
type StatusHandler struct {
	service *service.StatusService
	metrics *service.MetricsService
}

// NewStatusHandler creates a new handler. Metrics may be nil.
func NewStatusHandler(svc *service.StatusService, metrics *service.MetricsService) *StatusHandler {
	return &StatusHandler{service: svc, metrics: metrics}
}

// UpdateDifficultyStatuses godoc
// @Summary Update per-difficulty statuses
// @Description Applies a difficulty-to-status map to a beatmapset in one transaction
// @Tags Beatmapsets
// @Accept json
// @Produce json
// @Param id path int true "Beatmapset ID"
// @Param payload body dto.UpdateDifficultyStatusesRequest true "Difficulty statuses"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /beatmapsets/{id}/difficulty-statuses [post]
func (h *StatusHandler) UpdateDifficultyStatuses(c *gin.Context) {
	setID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid beatmapset id"))
		return
	}

	var req dto.UpdateDifficultyStatusesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	requested := make(map[int]models.Status, len(req.Statuses))
	for beatmapID, status := range req.Statuses {
		requested[beatmapID] = models.Status(status)
	}

	res, err := h.service.UpdateDifficultyStatuses(c.Request.Context(), setID, requested, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if res.Changed {
		h.metrics.ObserveStatusTransition(res.Status.String())
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// UpdateBeatmapsetStatus godoc
// @Summary Update the status of a whole beatmapset
// @Description Moves every difficulty and the set itself to the target status
// @Tags Beatmapsets
// @Accept json
// @Produce json
// @Param id path int true "Beatmapset ID"
// @Param payload body dto.UpdateBeatmapsetStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /beatmapsets/{id}/status [post]
func (h *StatusHandler) UpdateBeatmapsetStatus(c *gin.Context) {
	setID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid beatmapset id"))
		return
	}

	var req dto.UpdateBeatmapsetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	res, err := h.service.UpdateBeatmapsetStatus(c.Request.Context(), setID, models.Status(req.Status), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if res.Changed {
		h.metrics.ObserveStatusTransition(res.Status.String())
	}
	response.JSON(c, http.StatusOK, res, nil)
}
