// Package tetrio fetches documents and replays from the stats API.
package tetrio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/inoue/internal/errs"
)

// DefaultTimeout bounds a single request, body included.
const DefaultTimeout = 60 * time.Second

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// Client performs sequential GET requests with a fixed User-Agent.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// NewClient builds a client. A zero timeout disables the deadline.
func NewClient(userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Fetch issues a GET for url and reads the whole body. Failures to connect or
// to read the body are transport errors; any status code is returned as is.
func (c *Client) Fetch(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Response{}, errs.Transport("fetch "+url, "failed to create request", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("url", url),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return Response{}, errs.Transport("fetch "+url, "request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, errs.Transport("fetch "+url, fmt.Sprintf("failed to read body (%s)", resp.Status), err)
	}
	c.logger.Debug("request done",
		zap.String("method", req.Method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Response{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}, nil
}
