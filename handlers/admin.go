package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yellowair/middleware"
	"yellowair/models"
	"yellowair/repository"
	"yellowair/services"
)

const (
	adminBookingsLimit = 50
	adminFlightsPage   = 10
)

func (h *Handler) ListUsers(c *gin.Context) {
	const op = "handlers.ListUsers"

	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.internalError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ListBookings returns the newest bookings, optionally filtered by a
// substring of the booking number, passenger name or passenger email.
func (h *Handler) ListBookings(c *gin.Context) {
	const op = "handlers.ListBookings"

	bookings, err := h.store.ListBookings(c.Request.Context(), strings.TrimSpace(c.Query("search")), adminBookingsLimit)
	if err != nil {
		h.internalError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

type updateBookingInput struct {
	ID     string `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	const op = "handlers.UpdateBookingStatus"

	var input updateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorResponse(c, http.StatusBadRequest, "id and status are required")
		return
	}
	if !models.ValidBookingStatus(input.Status) {
		errorResponse(c, http.StatusBadRequest, "Invalid booking status")
		return
	}

	booking, err := h.store.UpdateBookingStatus(c.Request.Context(), input.ID, input.Status)
	if errors.Is(err, repository.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "Booking not found")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	h.notifier.Notify(c.Request.Context(), services.BookingStatusText(booking.BookingNumber, booking.Status, adminEmail(c)))
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) ListFlights(c *gin.Context) {
	const op = "handlers.ListFlights"

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	flights, total, err := h.store.ListFlights(c.Request.Context(), strings.TrimSpace(c.Query("search")), page, adminFlightsPage)
	if err != nil {
		h.internalError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flights": flights,
		"pagination": models.Pagination{
			Total:       total,
			Pages:       (total + adminFlightsPage - 1) / adminFlightsPage,
			CurrentPage: page,
		},
	})
}

type brandingInput struct {
	Match  models.BrandingMatch `json:"match"`
	Values models.Branding      `json:"values"`
}

// UpdateBranding applies airline name, code and logo to every matching flight.
func (h *Handler) UpdateBranding(c *gin.Context) {
	const op = "handlers.UpdateBranding"

	var input brandingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if input.Values.Airline == "" || input.Values.AirlineCode == "" {
		errorResponse(c, http.StatusBadRequest, "airline and airlineCode are required")
		return
	}

	updated, err := h.store.BulkUpdateAirlineBranding(c.Request.Context(), input.Match, input.Values)
	if errors.Is(err, repository.ErrEmptyMatch) {
		errorResponse(c, http.StatusBadRequest, "At least one match condition is required")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"op":      op,
		"airline": input.Values.Airline,
		"updated": updated,
	}).Info("airline branding updated")
	h.notifier.Notify(c.Request.Context(), services.BrandingText(input.Values.Airline, updated, adminEmail(c)))

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func adminEmail(c *gin.Context) string {
	if claims, ok := middleware.ClaimsFrom(c); ok {
		return claims.Email
	}
	return "unknown"
}
