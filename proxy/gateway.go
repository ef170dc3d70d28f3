package proxy

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const proxyFailedMessage = "Failed to proxy request to backend"

// Gateway is the public edge: it relays /api requests to the internal API.
type Gateway struct {
	client *Client
	log    *logrus.Logger
}

func NewGateway(client *Client, log *logrus.Logger) *Gateway {
	return &Gateway{client: client, log: log}
}

// Routes mounts the typed admin bookings route and forwards every other
// /api request.
func (g *Gateway) Routes(r *gin.Engine) {
	r.GET("/api/admin/bookings", g.AdminBookings)
	r.NoRoute(g.Forward)
}

func (g *Gateway) AdminBookings(c *gin.Context) {
	const op = "proxy.AdminBookings"

	resp, err := g.client.AdminBookings(c.Request.Context(), c.Query("search"), callerFrom(c))
	g.relay(c, op, resp, err)
}

func (g *Gateway) Forward(c *gin.Context) {
	const op = "proxy.Forward"

	if !strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	var body []byte
	if c.Request.Body != nil {
		data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read request body"})
			return
		}
		body = data
	}

	resp, err := g.client.Do(c.Request.Context(), Request{
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		RawQuery:    c.Request.URL.RawQuery,
		Body:        body,
		ContentType: c.GetHeader("Content-Type"),
		IfNoneMatch: c.GetHeader("If-None-Match"),
		Caller:      callerFrom(c),
	})
	g.relay(c, op, resp, err)
}

func callerFrom(c *gin.Context) Caller {
	return Caller{
		Cookie:        c.GetHeader("Cookie"),
		Authorization: c.GetHeader("Authorization"),
		ClientIP:      c.ClientIP(),
	}
}

func (g *Gateway) relay(c *gin.Context, op string, resp *Response, err error) {
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"op":     op,
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("proxy request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": proxyFailedMessage})
		return
	}

	h := c.Writer.Header()
	for _, cookie := range resp.SetCookies {
		h.Add("Set-Cookie", cookie)
	}
	if resp.ETag != "" {
		h.Set("ETag", resp.ETag)
	}
	if resp.CacheControl != "" {
		h.Set("Cache-Control", resp.CacheControl)
	}

	if resp.Status == http.StatusNotModified || len(resp.Body) == 0 {
		c.Status(resp.Status)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(resp.Status, contentType, resp.Body)
}
