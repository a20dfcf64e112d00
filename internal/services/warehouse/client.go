// internal/services/warehouse/client.go
package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonhttp "provider-enrollment/internal/common/http"
	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/common/metrics"
)

const (
	DefaultBaseURL  = "http://localhost:5005/api/events"
	DefaultEndpoint = "provider-enrollment"
)

// Config is fixed at construction; nothing on the send path reads the environment.
type Config struct {
	BaseURL    string
	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		MaxRetries: 3,
		Backoff:    time.Second,
		Timeout:    10 * time.Second,
	}
}

// Result is the outcome of a delivery. Failure is reported here rather than
// as a Go error.
type Result struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode,omitempty"`
	Body       string `json:"body,omitempty"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
	Details    string `json:"details,omitempty"`
}

// Client posts events to the data warehouse events API.
type Client struct {
	cfg    Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	return NewClientWithHTTP(cfg, nil, log)
}

// NewClientWithHTTP uses httpClient instead of building one from cfg.Timeout.
func NewClientWithHTTP(cfg Config, httpClient *commonhttp.Client, log logger.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if httpClient == nil {
		httpClient = commonhttp.NewClient(cfg.Timeout)
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: log.WithFields(map[string]interface{}{"component": "warehouse-client"}),
	}
}

// URL returns the events URL for endpoint.
func (c *Client) URL(endpoint string) string {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	endpoint = strings.Trim(endpoint, "/")
	if strings.HasSuffix(base, "/"+endpoint) {
		return base
	}
	return base + "/" + endpoint
}

// Send delivers event using the configured retry budget.
func (c *Client) Send(ctx context.Context, event interface{}, endpoint string) *Result {
	return c.SendWithRetries(ctx, event, endpoint, c.cfg.MaxRetries)
}

// SendWithRetries makes at most maxRetries+1 attempts, waiting Backoff between
// them. It stops early on success or when ctx is done.
func (c *Client) SendWithRetries(ctx context.Context, event interface{}, endpoint string, maxRetries int) *Result {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	url := c.URL(endpoint)
	start := time.Now()
	defer func() {
		metrics.WarehouseDeliveryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	result := &Result{}
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		result.Attempts = attempt

		resp, err := c.http.PostJSON(ctx, url, event)
		switch {
		case err != nil:
			result.StatusCode = 0
			result.Body = ""
			result.Error = err.Error()
			result.Details = "no response received"
			metrics.WarehouseDeliveryAttempts.WithLabelValues(endpoint, "transport_error").Inc()
		case resp.OK():
			metrics.WarehouseDeliveryAttempts.WithLabelValues(endpoint, "success").Inc()
			c.logger.Info("Data warehouse accepted event", map[string]interface{}{
				"url":        url,
				"statusCode": resp.StatusCode,
				"body":       resp.Body,
				"attempt":    attempt,
			})
			return &Result{
				Success:    true,
				StatusCode: resp.StatusCode,
				Body:       resp.Body,
				Attempts:   attempt,
			}
		default:
			result.StatusCode = resp.StatusCode
			result.Body = resp.Body
			result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
			result.Details = resp.Body
			metrics.WarehouseDeliveryAttempts.WithLabelValues(endpoint, "rejected").Inc()
		}

		remaining := maxRetries + 1 - attempt
		c.logger.Warn("Data warehouse delivery attempt failed", map[string]interface{}{
			"url":        url,
			"attempt":    attempt,
			"remaining":  remaining,
			"statusCode": result.StatusCode,
			"error":      result.Error,
			"details":    result.Details,
		})
		if remaining == 0 {
			break
		}

		if err := c.wait(ctx); err != nil {
			result.Error = err.Error()
			result.Details = fmt.Sprintf("delivery abandoned after %d attempts", attempt)
			break
		}
	}

	c.logger.Error("Data warehouse delivery failed", map[string]interface{}{
		"url":      url,
		"attempts": result.Attempts,
		"error":    result.Error,
	})
	return result
}

func (c *Client) wait(ctx context.Context) error {
	if c.cfg.Backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.cfg.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
