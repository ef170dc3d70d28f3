package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"yellowair/repository"
)

func (h *Handler) GetFlight(c *gin.Context) {
	const op = "handlers.GetFlight"

	flight, err := h.store.GetFlightByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "Flight not found")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	h.cachedJSON(c, op, flight)
}

// GetFlightStatus returns a dated flight instance with its flight.
func (h *Handler) GetFlightStatus(c *gin.Context) {
	const op = "handlers.GetFlightStatus"

	instance, err := h.store.GetFlightInstanceByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "Flight status not found")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	h.cachedJSON(c, op, instance)
}

// SearchFlights lists bookable flights between two airport codes.
func (h *Handler) SearchFlights(c *gin.Context) {
	const op = "handlers.SearchFlights"

	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		errorResponse(c, http.StatusBadRequest, "Missing required search parameters")
		return
	}

	flights, err := h.store.SearchFlights(c.Request.Context(), from, to)
	if err != nil {
		h.internalError(c, op, err)
		return
	}

	h.cachedJSON(c, op, gin.H{"flights": flights, "count": len(flights)})
}

// ListFlightStatus lists the flight instances for ?date=YYYY-MM-DD, today
// when no date is given.
func (h *Handler) ListFlightStatus(c *gin.Context) {
	const op = "handlers.ListFlightStatus"

	day := h.now().UTC().Truncate(24 * time.Hour)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	instances, err := h.store.ListFlightInstances(c.Request.Context(), day)
	if err != nil {
		h.internalError(c, op, err)
		return
	}

	h.cachedJSON(c, op, instances)
}
