package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStats returns the admin dashboard totals. Revenue is 0 when there are
// no bookings.
func (h *Handler) GetStats(c *gin.Context) {
	const op = "handlers.GetStats"

	stats, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		h.internalError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
