package handler

import (
	appfamily "github.com/familyreg/backend/internal/application/family"
	"github.com/gin-gonic/gin"
)

// StatsHandler serves the public registration summary
type StatsHandler struct {
	BaseHandler
	stats *appfamily.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats *appfamily.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Stats godoc
// @ID           getStats
// @Summary      Registration statistics
// @Description  Total families, total members and the average household size
// @Tags         stats
// @Produce      json
// @Success      200 {object} APIResponse[appfamily.StatsResult]
// @Failure      500 {object} ErrorResponse
// @Router       /stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	result, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
