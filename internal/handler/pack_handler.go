package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wavenote-dev/community-api/internal/service"
	"github.com/wavenote-dev/community-api/pkg/response"
)

// PackHandler serves the beatmap pack listing.
type PackHandler struct {
	service *service.PackService
}

// NewPackHandler creates a new handler.
func NewPackHandler(svc *service.PackService) *PackHandler {
	return &PackHandler{service: svc}
}

// Listing godoc
// @Summary List beatmap packs
// @Description Returns pack categories and the packs under the selected category
// @Tags Packs
// @Produce json
// @Param category query string false "Pack category"
// @Success 200 {object} response.Envelope
// @Router /packs [get]
func (h *PackHandler) Listing(c *gin.Context) {
	listing, err := h.service.Listing(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, listing, nil)
}
