package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/yildizm/snapzoo/internal/config"
	"github.com/yildizm/snapzoo/internal/logger"
)

const (
	// fieldName is the multipart field the service reads the image from
	fieldName = "file"

	maxResponseBytes = 1 << 20
	maxRetryAfter    = 30 * time.Second
)

// Client submits images to the analysis service over HTTP
type Client struct {
	config *config.ServerConfig
	url    string
	client *http.Client
	log    *logger.Logger
}

// NewClient creates a client for the configured endpoint
func NewClient(cfg *config.ServerConfig) (*Client, error) {
	if cfg == nil {
		cfg = &config.DefaultConfig().Server
	}

	full := &config.Config{Server: *cfg}
	endpoint, err := full.AnalyzeURL()
	if err != nil {
		return nil, err
	}

	// Session cookies set by the service are sent back on later requests.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		config: cfg,
		url:    endpoint,
		client: &http.Client{Timeout: cfg.Timeout, Jar: jar},
		log:    logger.New("analysis"),
	}, nil
}

// URL returns the analyze endpoint
func (c *Client) URL() string {
	return c.url
}

// Analyze uploads the image and interprets the response
func (c *Client) Analyze(ctx context.Context, upload Upload) (*Result, error) {
	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return nil, NewTransportErrorWithCause(ErrTypeInternal, "failed to encode upload", err)
	}

	start := time.Now()
	resp, err := c.doRequestWithRetry(ctx, body, contentType)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewTransportErrorWithCause(ErrTypeNetwork, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewStatusError(resp.StatusCode, serverDetail(data))
	}

	result, err := DecodeResult(data)
	if err != nil {
		return nil, err
	}

	c.log.Debug("analysis complete",
		logger.F("label", result.Label),
		logger.F("confidence", result.Confidence),
		logger.Duration(time.Since(start)))
	return result, nil
}

func (c *Client) newRequest(ctx context.Context, body []byte, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	return req, nil
}

func (c *Client) doRequestWithRetry(ctx context.Context, body []byte, contentType string) (*http.Response, error) {
	attempts := c.config.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt, lastErr)
			c.log.Debug("retrying analysis request", logger.F("attempt", attempt+1), logger.Duration(delay))
			if err := sleep(ctx, delay); err != nil {
				return nil, classifyRequestError(err)
			}
		}

		req, err := c.newRequest(ctx, body, contentType)
		if err != nil {
			return nil, NewTransportErrorWithCause(ErrTypeInternal, "failed to create request", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = classifyRequestError(err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			statusErr := NewStatusError(resp.StatusCode, serverDetail(data))
			lastErr = &retryAfterError{TransportError: statusErr, after: parseRetryAfter(resp.Header.Get("Retry-After"))}
			continue
		}

		return resp, nil
	}

	var ra *retryAfterError
	if errors.As(lastErr, &ra) {
		return nil, ra.TransportError
	}
	return nil, lastErr
}

// backoff doubles the base delay per attempt, honouring Retry-After
func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	var ra *retryAfterError
	if errors.As(lastErr, &ra) && ra.after > 0 {
		return ra.after
	}
	return time.Duration(math.Pow(2, float64(attempt-1))) * c.config.RetryBackoff
}

type retryAfterError struct {
	*TransportError
	after time.Duration
}

func (e *retryAfterError) Unwrap() error {
	return e.TransportError
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	d := time.Duration(seconds) * time.Second
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

func classifyRequestError(err error) *TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTransportErrorWithCause(ErrTypeTimeout, "request timed out", err)
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return NewTransportErrorWithCause(ErrTypeTimeout, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		e := NewTransportErrorWithCause(ErrTypeNetwork, "request cancelled", err)
		e.Retryable = false
		return e
	}
	return NewTransportErrorWithCause(ErrTypeNetwork, "request failed", err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// encodeUpload builds the multipart body
func encodeUpload(upload Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := upload.Name
	if name == "" {
		name = "image"
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, name))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// serverDetail pulls a human-readable explanation out of an error body
func serverDetail(body []byte) string {
	var payload struct {
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch d := payload.Detail.(type) {
		case string:
			if d != "" {
				return d
			}
		case nil:
		default:
			if raw, err := json.Marshal(d); err == nil {
				return string(raw)
			}
		}
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
		return ""
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
