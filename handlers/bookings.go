package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yellowair/middleware"
	"yellowair/models"
	"yellowair/repository"
)

type createBookingInput struct {
	FlightID       string  `json:"flightId" binding:"required"`
	PassengerName  string  `json:"passengerName" binding:"required"`
	PassengerEmail string  `json:"passengerEmail" binding:"omitempty,email"`
	TotalPrice     float64 `json:"totalPrice" binding:"required,gt=0"`
}

func (h *Handler) GetBooking(c *gin.Context) {
	const op = "handlers.GetBooking"

	booking, err := h.store.GetBookingByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "Booking not found")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	h.cachedJSON(c, op, booking)
}

// LookupBooking finds a booking by ?bookingNumber=, ignoring case.
func (h *Handler) LookupBooking(c *gin.Context) {
	const op = "handlers.LookupBooking"

	number := strings.TrimSpace(c.Query("bookingNumber"))
	if number == "" {
		errorResponse(c, http.StatusBadRequest, "Booking number is required")
		return
	}

	booking, err := h.store.GetBookingByNumber(c.Request.Context(), number)
	if errors.Is(err, repository.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "Booking not found")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	h.cachedJSON(c, op, booking)
}

// CreateBooking books a flight for the signed-in user. The passenger email
// defaults to the user's own.
func (h *Handler) CreateBooking(c *gin.Context) {
	const op = "handlers.CreateBooking"

	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var input createBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorResponse(c, http.StatusBadRequest, "Missing required booking fields")
		return
	}

	email := normalizeEmail(input.PassengerEmail)
	if email == "" {
		email = claims.Email
	}

	booking, err := h.store.CreateBooking(c.Request.Context(), &models.Booking{
		UserID:         claims.UserID,
		FlightID:       input.FlightID,
		PassengerName:  strings.TrimSpace(input.PassengerName),
		PassengerEmail: email,
		TotalPrice:     input.TotalPrice,
	})
	if errors.Is(err, repository.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "Flight not found")
		return
	} else if err != nil {
		h.internalError(c, op, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"op":             op,
		"booking_number": booking.BookingNumber,
		"flight_id":      booking.FlightID,
		"user_id":        booking.UserID,
	}).Info("booking created")

	c.JSON(http.StatusCreated, gin.H{"message": "Booking confirmed", "booking": booking})
}
