package api

import (
	"github.com/shaiso/obsdemo/internal/domain"
)

// CreateUserRequest — запрос на создание пользователя.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse — ответ с пользователем. createdAt — epoch ms.
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
	Status    string `json:"status"`
}

// UserFromDomain конвертирует domain.User в UserResponse.
func UserFromDomain(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UnixMilli(),
		Status:    u.Status,
	}
}

// HealthResponse — ответ /api/demo/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	RequestID string `json:"requestId"`
	Service   string `json:"service"`
}

// SlowResponse — ответ /api/demo/slow. processingTime — в мс.
type SlowResponse struct {
	Message        string `json:"message"`
	ProcessingTime int64  `json:"processingTime"`
	RequestID      string `json:"requestId"`
}

// MessageResponse — ответ с сообщением.
type MessageResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// CustomMetricsResponse — ответ /api/demo/metrics.
type CustomMetricsResponse struct {
	Message          string `json:"message"`
	RequestID        string `json:"requestId"`
	AvailableMetrics string `json:"availableMetrics"`
}

// APIInfoResponse — ответ /api.
type APIInfoResponse struct {
	Message            string            `json:"message"`
	Status             string            `json:"status"`
	Timestamp          int64             `json:"timestamp"`
	AvailableEndpoints map[string]string `json:"available_endpoints"`
}
