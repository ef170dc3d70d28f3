package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func errorResponse(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// messageResponse is the body shape of the account verification flows.
func messageResponse(c *gin.Context, status int, msg string) {
	if status >= http.StatusBadRequest {
		c.AbortWithStatusJSON(status, gin.H{"message": msg})
		return
	}
	c.JSON(status, gin.H{"message": msg})
}

// internalError logs err and answers with a body that reveals nothing about it.
func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.log.WithField("op", op).WithError(err).Error("request failed")
	errorResponse(c, http.StatusInternalServerError, "Internal server error")
}
