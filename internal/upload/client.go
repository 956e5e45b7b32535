package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/brianbtrfld/sram-ebike/internal/ride"

	"github.com/gofiber/fiber/v2"
)

const maxErrorBody = 500

// Receipt is what the remote library answered with.
type Receipt struct {
	StatusCode int `json:"status_code"`
	Response   any `json:"response,omitempty"`
}

// StatusError is returned when the remote answers 4xx or 5xx.
type StatusError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upload to %s failed (status %d): %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upload to %s failed (status %d)", e.URL, e.StatusCode)
}

type Client struct {
	url     string
	timeout time.Duration
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{url: url, timeout: timeout}
}

func (c *Client) URL() string {
	return c.url
}

// Upload posts a ride snapshot to the configured endpoint.
func (c *Client) Upload(r ride.Ride) (Receipt, error) {
	if c.url == "" {
		return Receipt{}, errors.New("upload url not configured")
	}

	agent := fiber.Post(c.url).JSON(r).Timeout(c.timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Receipt{}, fmt.Errorf("upload to %s: %w", c.url, errors.Join(errs...))
	}
	if code >= http.StatusBadRequest {
		return Receipt{}, &StatusError{StatusCode: code, Body: truncate(string(body), maxErrorBody), URL: c.url}
	}

	receipt := Receipt{StatusCode: code}
	if len(body) > 0 {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			receipt.Response = decoded
		} else {
			receipt.Response = string(body)
		}
	}
	return receipt, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// never split a multi-byte rune
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
