package handlers

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zeebo/blake3"
)

// etag derives a strong validator from the data version and the body.
func (h *Handler) etag(body []byte) string {
	hasher := blake3.New()
	hasher.Write([]byte(h.dataVersion))
	hasher.Write([]byte{0})
	hasher.Write(body)
	return `"` + hex.EncodeToString(hasher.Sum(nil)[:16]) + `"`
}

func etagMatches(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}

// cachedJSON writes v with an ETag and answers 304 when the client already
// holds the same representation.
func (h *Handler) cachedJSON(c *gin.Context, op string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.internalError(c, op, err)
		return
	}

	tag := h.etag(body)
	c.Header("ETag", tag)
	c.Header("Cache-Control", "private, no-cache")

	if inm := c.GetHeader("If-None-Match"); inm != "" && etagMatches(inm, tag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// noStore keeps admin responses out of every cache.
func noStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

func (h *Handler) GetVersion(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, gin.H{"version": h.dataVersion})
}
