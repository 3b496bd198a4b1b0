package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

// DefaultMaxResponseBytes bounds any single response body. The service does not paginate
// GET /businesses, so the client refuses to buffer unbounded payloads.
const DefaultMaxResponseBytes int64 = 8 << 20

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ErrResponseTooLarge is returned when a response body exceeds Config.MaxResponseBytes.
var ErrResponseTooLarge = errors.New("response body too large")

// Client is the recommendation service API client
type Client struct {
	baseURL          string
	httpClient       *http.Client
	maxResponseBytes int64
	breaker          *gobreaker.CircuitBreaker[[]byte]
}

// Config holds the client configuration
type Config struct {
	BaseURL          string        // Service base URL (e.g., "http://localhost:8000")
	Timeout          time.Duration // HTTP client timeout (default: 30s)
	HTTPClient       *http.Client  // Optional custom HTTP client
	MaxResponseBytes int64         // Response body cap (default: 8 MiB)
	Breaker          *BreakerConfig
}

// NewClient creates a new recommendation service client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	c := &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:       httpClient,
		maxResponseBytes: cfg.MaxResponseBytes,
	}
	if cfg.Breaker != nil {
		c.breaker = newBreaker(*cfg.Breaker)
	}
	return c
}

// BaseURL returns the service address the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id to ctx. Requests issued with that context send it
// in the X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// doRequest performs a JSON request and decodes a JSON response into result
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := c.newRequest(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, result)
}

// doMultipart uploads one file as multipart/form-data under the given field name
func (c *Client) doMultipart(ctx context.Context, path, field, filename string, content io.Reader, result interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.send(req, result)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, id)

	return req, nil
}

// send executes req, guarded by the circuit breaker when one is configured
func (c *Client) send(req *http.Request, result interface{}) error {
	var respBody []byte
	var err error
	if c.breaker != nil {
		respBody, err = c.breaker.Execute(func() ([]byte, error) {
			return c.roundTrip(req)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
	} else {
		respBody, err = c.roundTrip(req)
	}
	if err != nil {
		return err
	}

	// Parse success response
	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

func (c *Client) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(respBody)) > c.maxResponseBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, c.maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// Businesses returns the business management service
func (c *Client) Businesses() *BusinessService {
	return &BusinessService{client: c}
}

// Datasets returns the dataset ingestion service
func (c *Client) Datasets() *DatasetService {
	return &DatasetService{client: c}
}

// Training returns the model training service
func (c *Client) Training() *TrainingService {
	return &TrainingService{client: c}
}

// Recommendations returns the recommendation query service
func (c *Client) Recommendations() *RecommendationService {
	return &RecommendationService{client: c}
}

// Metrics returns the evaluation metrics service
func (c *Client) Metrics() *MetricsService {
	return &MetricsService{client: c}
}
