package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
)

const (
	defaultMaxAttempts = 3
	defaultTimeout     = 30 * time.Second
	defaultBackoffUnit = time.Second
)

// RequestConfig holds retry and timeout settings for outbound platform calls
type RequestConfig struct {
	Timeout     time.Duration // per-call timeout
	MaxAttempts int           // bounded attempt count, default 3
	BackoffUnit time.Duration // base delay unit, default 1s
}

// RequestClient executes outbound HTTP calls with bounded retries and
// exponential backoff. A failed attempt that is not the last waits
// 2^(attempt-1) backoff units before the next try; the final attempt's
// failure surfaces a terminal *DeliveryError with the extracted remote
// error message.
type RequestClient struct {
	httpClient  *http.Client
	maxAttempts int
	backoffUnit time.Duration
	log         *logger.Logger
}

// NewRequestClient creates a retrying request client
func NewRequestClient(cfg RequestConfig, log *logger.Logger) *RequestClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = defaultBackoffUnit
	}
	return &RequestClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		maxAttempts: cfg.MaxAttempts,
		backoffUnit: cfg.BackoffUnit,
		log:         log.WithComponent("request"),
	}
}

// WithHTTPClient substitutes the underlying HTTP client, preserving the
// configured timeout. Used to inject oauth2 token transports.
func (c *RequestClient) WithHTTPClient(h *http.Client) *RequestClient {
	clone := *c
	h.Timeout = c.httpClient.Timeout
	clone.httpClient = h
	return &clone
}

// DoJSON sends a JSON request and decodes the JSON response body. Non-2xx
// responses and transport errors are retried up to the attempt budget; the
// final failure is returned as a *DeliveryError.
func (c *RequestClient) DoJSON(ctx context.Context, method, url string, body interface{}, headers map[string]string) (models.JSON, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	var lastMsg string
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, errMsg := c.attempt(ctx, method, url, payload, headers)
		if errMsg == "" {
			if attempt > 1 {
				c.log.Info().Int("attempt", attempt).Str("url", url).Msg("Request succeeded after retry")
			}
			return result, nil
		}
		lastMsg = errMsg

		if attempt == c.maxAttempts {
			c.log.Error().
				Str("url", url).
				Int("attempts", attempt).
				Str("error", errMsg).
				Msg("Request failed after all retries")
			break
		}

		wait := c.backoffUnit << uint(attempt-1)
		c.log.Warn().
			Str("url", url).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Str("error", errMsg).
			Msg("Request failed, retrying")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, &DeliveryError{Message: fmt.Sprintf("API request failed: %s", lastMsg)}
}

// attempt performs one request; a non-empty returned string is the failure
// message for that attempt.
func (c *RequestClient) attempt(ctx context.Context, method, url string, payload []byte, headers map[string]string) (models.JSON, string) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err.Error()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err.Error()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, extractErrorMessage(resp.StatusCode, respBody)
	}

	if len(respBody) == 0 {
		return models.JSON{}, ""
	}
	var result models.JSON
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Sprintf("failed to decode response: %v", err)
	}
	return result, ""
}

// extractErrorMessage pulls a human-readable message out of a failed
// response. Checks error.message, then message, then error, then falls back
// to the raw status and body.
func extractErrorMessage(status int, body []byte) string {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err == nil {
		if errObj, ok := data["error"].(map[string]interface{}); ok {
			if msg, ok := errObj["message"].(string); ok && msg != "" {
				return msg
			}
		}
		if msg, ok := data["message"].(string); ok && msg != "" {
			return msg
		}
		if errVal, ok := data["error"]; ok {
			if msg, ok := errVal.(string); ok && msg != "" {
				return msg
			}
			encoded, _ := json.Marshal(errVal)
			return string(encoded)
		}
	}
	return fmt.Sprintf("HTTP %d: %s", status, string(body))
}
