package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shaiso/obsdemo/internal/domain"
	"github.com/shaiso/obsdemo/internal/instrument"
	"github.com/shaiso/obsdemo/internal/service"
	"github.com/shaiso/obsdemo/internal/telemetry"
)

// Имена операций.
const (
	OpHealth     = "demo.health"
	OpUserGet    = "demo.user.get"
	OpUserCreate = "demo.user.create"
	OpSlow       = "demo.slow"
	OpError      = "demo.error"
	OpMetrics    = "demo.metrics"
)

// AvailableMetricsHint — подсказка в ответе /api/demo/metrics.
const AvailableMetricsHint = "Check /metrics for all metrics"

// Health возвращает статус сервиса.
// GET /api/demo/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp, err := instrument.Run(r.Context(), h.in, instrument.Op{
		Name:    OpHealth,
		Counter: telemetry.MetricHealthRequests,
		Timer:   telemetry.MetricHealthTimer,
	}, func(ctx context.Context) (HealthResponse, error) {
		h.logger.InfoContext(ctx, "health check requested")
		return HealthResponse{
			Status:    "UP",
			Timestamp: h.now().UnixMilli(),
			RequestID: telemetry.RequestIDFromContext(ctx),
			Service:   h.serviceName,
		}, nil
	})
	if err != nil {
		InternalError(w, requestIDOf(err))
		return
	}

	Respond(w, http.StatusOK, resp.RequestID, resp)
}

// GetUser возвращает пользователя по ID.
// GET /api/demo/users/{userId}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	type result struct {
		user      UserResponse
		requestID string
	}

	res, err := instrument.Run(r.Context(), h.in, instrument.Op{
		Name:    OpUserGet,
		Counter: telemetry.MetricUserRequests,
		Timer:   telemetry.MetricUserGetTimer,
		Tags:    map[string]string{telemetry.LabelUserID: userID},
		UserID:  userID,
	}, func(ctx context.Context) (result, error) {
		h.logger.InfoContext(ctx, "getting user")

		user, err := h.svc.GetUser(ctx, userID)
		if err != nil {
			return result{}, err
		}

		h.logger.InfoContext(ctx, "user retrieved")
		return result{user: UserFromDomain(*user), requestID: telemetry.RequestIDFromContext(ctx)}, nil
	})
	if err != nil {
		requestID := requestIDOf(err)
		if instrument.KindOf(err) == instrument.KindNotFound {
			Error(w, http.StatusNotFound, ErrorResponse{
				Error:     MsgUserNotFound,
				UserID:    userID,
				RequestID: requestID,
			})
			return
		}
		InternalError(w, requestID)
		return
	}

	Respond(w, http.StatusOK, res.requestID, res.user)
}

// CreateUser создаёт пользователя со сгенерированным ID.
// POST /api/demo/users
//
// Любой сбой (тело не JSON, нет name, имитированная ошибка хранилища)
// отдаётся как 500 "Failed to create user".
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	userID := service.NewUserID()

	type result struct {
		user      UserResponse
		requestID string
	}

	res, err := instrument.Run(r.Context(), h.in, instrument.Op{
		Name:    OpUserCreate,
		Counter: telemetry.MetricUserCreated,
		Timer:   telemetry.MetricUserCreateTimer,
		UserID:  userID,
	}, func(ctx context.Context) (result, error) {
		h.logger.InfoContext(ctx, "creating new user")

		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return result{}, fmt.Errorf("invalid request body: %v: %w", err, domain.ErrOperationFailed)
		}
		h.logger.DebugContext(ctx, "user data", "name", req.Name, "email", req.Email)

		user, err := h.svc.CreateUser(ctx, userID, service.CreateUserInput{
			Name:  req.Name,
			Email: req.Email,
		})
		if err != nil {
			return result{}, err
		}
		return result{user: UserFromDomain(*user), requestID: telemetry.RequestIDFromContext(ctx)}, nil
	})
	if err != nil {
		Error(w, http.StatusInternalServerError, ErrorResponse{
			Error:     MsgCreateFailed,
			RequestID: requestIDOf(err),
		})
		return
	}

	Respond(w, http.StatusCreated, res.requestID, res.user)
}

// Slow отвечает после искусственной задержки 1000–3999 мс.
// GET /api/demo/slow
func (h *Handler) Slow(w http.ResponseWriter, r *http.Request) {
	resp, err := instrument.Run(r.Context(), h.in, instrument.Op{
		Name:  OpSlow,
		Timer: telemetry.MetricSlowTimer,
	}, func(ctx context.Context) (SlowResponse, error) {
		h.logger.InfoContext(ctx, "slow endpoint called")

		d, err := h.svc.SimulateSlow(ctx)
		if err != nil {
			return SlowResponse{}, err
		}

		h.in.Metrics().Observe(telemetry.MetricEvent{
			Name:    telemetry.MetricSlowProcessingTime,
			Outcome: telemetry.OutcomeSuccess,
		}, d)

		h.logger.InfoContext(ctx, "slow endpoint completed", "processing_ms", d.Milliseconds())
		return SlowResponse{
			Message:        "This was a slow operation",
			ProcessingTime: d.Milliseconds(),
			RequestID:      telemetry.RequestIDFromContext(ctx),
		}, nil
	})
	if err != nil {
		InternalError(w, requestIDOf(err))
		return
	}

	Respond(w, http.StatusOK, resp.RequestID, resp)
}

// Error завершается ошибкой при forceError=true или случайно.
// GET /api/demo/error?forceError=bool
//
// Нераспознанное значение forceError считается false.
func (h *Handler) Error(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("forceError"))

	resp, err := instrument.Run(r.Context(), h.in, instrument.Op{
		Name:    OpError,
		Counter: telemetry.MetricErrors,
	}, func(ctx context.Context) (MessageResponse, error) {
		h.logger.InfoContext(ctx, "error endpoint called", "force_error", force)

		if err := h.svc.SimulateError(ctx, force); err != nil {
			return MessageResponse{}, err
		}
		return MessageResponse{
			Message:   "No error this time!",
			RequestID: telemetry.RequestIDFromContext(ctx),
		}, nil
	})
	if err != nil {
		if instrument.KindOf(err) == instrument.KindInternal {
			InternalError(w, requestIDOf(err))
			return
		}
		Error(w, http.StatusInternalServerError, ErrorResponse{
			Error:     MsgSimulatedError,
			RequestID: requestIDOf(err),
			Timestamp: h.now().UnixMilli(),
		})
		return
	}

	Respond(w, http.StatusOK, resp.RequestID, resp)
}

// CustomMetrics выставляет gauge demo.random.value.
// GET /api/demo/metrics
func (h *Handler) CustomMetrics(w http.ResponseWriter, r *http.Request) {
	resp, err := instrument.Run(r.Context(), h.in, instrument.Op{
		Name:    OpMetrics,
		Counter: telemetry.MetricMetricRequests,
	}, func(ctx context.Context) (CustomMetricsResponse, error) {
		v := h.svc.RandomValue()
		h.in.Metrics().SetGauge(telemetry.MetricRandomValue, v)
		h.logger.InfoContext(ctx, "custom metrics generated", "random_value", v)

		return CustomMetricsResponse{
			Message:          "Custom metrics generated",
			RequestID:        telemetry.RequestIDFromContext(ctx),
			AvailableMetrics: AvailableMetricsHint,
		}, nil
	})
	if err != nil {
		InternalError(w, requestIDOf(err))
		return
	}

	Respond(w, http.StatusOK, resp.RequestID, resp)
}
