// Package proxy forwards public gateway traffic to the internal API.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"yellowair/config"
	"yellowair/metrics"
)

const maxBodyBytes = 10 << 20

var errRetryableStatus = errors.New("retryable upstream status")

// Request is one call to the internal API.
type Request struct {
	Method      string
	Path        string
	RawQuery    string
	Body        []byte
	ContentType string
	IfNoneMatch string
	Caller
}

// Caller identifies the end user a request is made for.
type Caller struct {
	Cookie        string
	Authorization string
	// ClientIP is passed on as X-Forwarded-For and X-Real-IP so the API can
	// tell users apart behind the gateway.
	ClientIP string
}

// Response is the upstream answer, relayed as is.
type Response struct {
	Status       int
	Body         []byte
	ContentType  string
	ETag         string
	CacheControl string
	SetCookies   []string
}

type Client struct {
	baseURL    string
	http       *http.Client
	maxRetries uint64
	backoff    time.Duration
	log        *logrus.Logger
}

func NewClient(cfg config.Proxy, log *logrus.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.APIBaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.APIBaseURL)
	}

	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	return &Client{
		baseURL:    base,
		http:       &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
		log:        log,
	}, nil
}

// Do sends req. Idempotent methods are retried on transport errors and on
// 502, 503 and 504, up to the configured number of retries. When retries
// run out on a bad status, the last response is returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var (
		resp    *Response
		attempt int
	)
	idempotent := isIdempotent(req.Method)
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.RecordRetry()
			c.log.WithFields(logrus.Fields{
				"method":  req.Method,
				"path":    req.Path,
				"attempt": attempt,
			}).Debug("retrying upstream request")
		}

		r, err := c.once(ctx, req)
		if err != nil {
			if idempotent {
				return retry.RetryableError(err)
			}
			return err
		}

		resp = r
		if idempotent && retryableStatus(r.Status) {
			return retry.RetryableError(errRetryableStatus)
		}
		return nil
	})
	if errors.Is(err, errRetryableStatus) {
		err = nil
	}

	metrics.RecordForward(req.Method, statusOf(resp), err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// AdminBookings lists bookings through the internal admin API on behalf of
// the caller's session.
func (c *Client) AdminBookings(ctx context.Context, search string, caller Caller) (*Response, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	return c.Do(ctx, Request{
		Method:   http.MethodGet,
		Path:     "/api/admin/bookings",
		RawQuery: q.Encode(),
		Caller:   caller,
	})
}

func (c *Client) once(ctx context.Context, req Request) (*Response, error) {
	target := c.baseURL + req.Path
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Cookie != "" {
		httpReq.Header.Set("Cookie", req.Cookie)
	}
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	}
	if req.ClientIP != "" {
		httpReq.Header.Set("X-Forwarded-For", req.ClientIP)
		httpReq.Header.Set("X-Real-IP", req.ClientIP)
	}
	if req.IfNoneMatch != "" {
		httpReq.Header.Set("If-None-Match", req.IfNoneMatch)
	}
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	return &Response{
		Status:       httpResp.StatusCode,
		Body:         data,
		ContentType:  httpResp.Header.Get("Content-Type"),
		ETag:         httpResp.Header.Get("ETag"),
		CacheControl: httpResp.Header.Get("Cache-Control"),
		SetCookies:   httpResp.Header.Values("Set-Cookie"),
	}, nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func retryableStatus(status int) bool {
	return status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

func statusOf(resp *Response) int {
	if resp == nil {
		return 0
	}
	return resp.Status
}
