package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// HealthResponse — ответ health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	RequestID string `json:"requestId"`
	Service   string `json:"service"`
}

// UserResponse — пользователь. CreatedAt — epoch ms.
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
	Status    string `json:"status"`
}

// SlowResponse — ответ slow. ProcessingTime — мс.
type SlowResponse struct {
	Message        string `json:"message"`
	ProcessingTime int64  `json:"processingTime"`
	RequestID      string `json:"requestId"`
}

// MessageResponse — ответ error без сбоя.
type MessageResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// MetricsResponse — ответ metrics.
type MetricsResponse struct {
	Message          string `json:"message"`
	RequestID        string `json:"requestId"`
	AvailableMetrics string `json:"availableMetrics"`
}

// InfoResponse — ответ /api.
type InfoResponse struct {
	Message            string            `json:"message"`
	Status             string            `json:"status"`
	Timestamp          int64             `json:"timestamp"`
	AvailableEndpoints map[string]string `json:"available_endpoints"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
	UserID    string `json:"userId,omitempty"`
}

// APIError — ответ API со статусом >= 400.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s (requestId %s)", e.StatusCode, e.Message, e.RequestID)
}

// IsNotFound сообщает, что API ответило 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// --- Client ---

// Client — HTTP-клиент для demo API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// slow отвечает до 4 секунд
			Timeout: 30 * time.Second,
		},
	}
}

// Health вызывает GET /api/demo/health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	err := c.get(ctx, "/api/demo/health", &resp)
	return &resp, err
}

// GetUser вызывает GET /api/demo/users/{id}.
func (c *Client) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	var resp UserResponse
	err := c.get(ctx, "/api/demo/users/"+url.PathEscape(id), &resp)
	return &resp, err
}

// CreateUser вызывает POST /api/demo/users.
func (c *Client) CreateUser(ctx context.Context, name, email string) (*UserResponse, error) {
	body := map[string]string{"name": name, "email": email}
	var resp UserResponse
	err := c.post(ctx, "/api/demo/users", body, &resp)
	return &resp, err
}

// Slow вызывает GET /api/demo/slow.
func (c *Client) Slow(ctx context.Context) (*SlowResponse, error) {
	var resp SlowResponse
	err := c.get(ctx, "/api/demo/slow", &resp)
	return &resp, err
}

// Error вызывает GET /api/demo/error. force=true гарантирует сбой.
func (c *Client) Error(ctx context.Context, force bool) (*MessageResponse, error) {
	path := "/api/demo/error"
	if force {
		path += "?forceError=" + strconv.FormatBool(force)
	}
	var resp MessageResponse
	err := c.get(ctx, path, &resp)
	return &resp, err
}

// Metrics вызывает GET /api/demo/metrics.
func (c *Client) Metrics(ctx context.Context) (*MetricsResponse, error) {
	var resp MetricsResponse
	err := c.get(ctx, "/api/demo/metrics", &resp)
	return &resp, err
}

// Info вызывает GET /api.
func (c *Client) Info(ctx context.Context) (*InfoResponse, error) {
	var resp InfoResponse
	err := c.get(ctx, "/api", &resp)
	return &resp, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		RequestID:  resp.Header.Get("X-Request-ID"),
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		if er.Error != "" {
			apiErr.Message = er.Error
		}
		if er.RequestID != "" {
			apiErr.RequestID = er.RequestID
		}
	}

	return apiErr
}
