// Package upload sends images to the external image host (Cloudinary-style
// unsigned uploads) and returns the hosted URLs.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Retry configuration
	defaultMaxRetries   = 5
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 32 * time.Second
)

// Request is a single unsigned upload.
type Request struct {
	File     File
	Preset   string
	PublicID string // full public id; takes precedence over Folder
	Folder   string
}

// Result is the part of the image host response we keep.
type Result struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPError is a non-2xx answer from the image host.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("image host HTTP %d: %s", e.Status, e.Message)
}

// Client handles uploads with rate limiting and retry logic.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	log         *zap.Logger

	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// NewClient builds a client for {baseURL}/{cloud}/image/upload limited to
// perSecond requests.
func NewClient(baseURL, cloud string, perSecond float64, log *zap.Logger) *Client {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		endpoint:    fmt.Sprintf("%s/%s/image/upload", strings.TrimRight(baseURL, "/"), cloud),
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), burst*2),
		log:         log,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
	}
}

// Upload posts one image and returns the hosted result.
func (c *Client) Upload(ctx context.Context, req Request) (*Result, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, err
	}

	var result Result
	if err := c.doRequest(ctx, body, contentType, &result); err != nil {
		return nil, fmt.Errorf("upload %s: %w", req.File.Name, err)
	}
	if result.SecureURL == "" {
		return nil, fmt.Errorf("upload %s: response has no secure_url", req.File.Name)
	}
	return &result, nil
}

func encodeForm(req Request) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", req.File.Name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(req.File.Data); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	fields := map[string]string{"upload_preset": req.Preset}
	if req.PublicID != "" {
		fields["public_id"] = req.PublicID
	} else if req.Folder != "" {
		fields["folder"] = req.Folder
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// doRequest performs the POST with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, body []byte, contentType string, result any) error {
	var lastErr error
	delay := c.InitialDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if attempt < c.MaxRetries {
				c.log.Warn("image upload failed, retrying",
					zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(err))
				if err := sleep(ctx, delay); err != nil {
					return err
				}
				delay = min(delay*2, c.MaxDelay)
				continue
			}
			break
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			err := json.NewDecoder(resp.Body).Decode(result)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			return nil
		}

		httpErr := readHTTPError(resp)
		retryAfter := resp.Header.Get("Retry-After")
		resp.Body.Close()

		if !shouldRetry(resp.StatusCode) || attempt >= c.MaxRetries {
			return httpErr
		}
		lastErr = httpErr
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			delay = time.Duration(secs) * time.Second
		}
		c.log.Warn("image host busy, retrying",
			zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt+1), zap.Duration("delay", delay))
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = min(delay*2, c.MaxDelay)
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.MaxRetries+1, lastErr)
}

func readHTTPError(resp *http.Response) *HTTPError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(raw))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
		msg = eb.Error.Message
	}
	return &HTTPError{Status: resp.StatusCode, Message: msg}
}

// shouldRetry determines if an HTTP status code warrants a retry
func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsClientError reports whether err is a 4xx answer that retrying cannot fix.
func IsClientError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status >= 400 && httpErr.Status < 500 && httpErr.Status != http.StatusTooManyRequests
}
