package handlers

import (
	"github.com/gin-gonic/gin"

	"yellowair/middleware"
)

// Routes mounts every API route on r. authLimit, when not nil, guards the
// credential endpoints.
func (h *Handler) Routes(r gin.IRouter, authLimit gin.HandlerFunc) {
	api := r.Group("/api", middleware.Authenticate(h.codec))
	api.GET("/version", h.GetVersion)

	api.GET("/flights/search", h.SearchFlights)
	api.GET("/flights/:id", h.GetFlight)
	api.GET("/flight-status", h.ListFlightStatus)
	api.GET("/flight-status/:id", h.GetFlightStatus)
	api.GET("/bookings/lookup", h.LookupBooking)
	api.GET("/bookings/:id", h.GetBooking)
	api.POST("/bookings", middleware.AuthRequired(h.codec), h.CreateBooking)

	authGroup := api.Group("/auth")
	if authLimit != nil {
		authGroup.Use(authLimit)
	}
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", middleware.AuthRequired(h.codec), h.Me)
		authGroup.POST("/verify-email", h.VerifyEmail)
		authGroup.POST("/verify-reset-token", h.VerifyResetToken)
		authGroup.POST("/send-verification", h.SendVerification)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.POST("/reset-password", h.ResetPassword)
	}

	admin := api.Group("/admin", noStore(), middleware.AdminRequired(h.codec, h.guard))
	{
		admin.GET("/users", h.ListUsers)
		admin.GET("/stats", h.GetStats)
		admin.GET("/bookings", h.ListBookings)
		admin.PUT("/bookings", h.UpdateBookingStatus)
		admin.GET("/flights", h.ListFlights)
		admin.POST("/flights/branding", h.UpdateBranding)
	}
}
