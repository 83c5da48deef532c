package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gometeo/chatweather/internal/gateway"
	"github.com/gometeo/chatweather/internal/model"
)

const maxBodyBytes = 1 << 16

// Gateway - то, что нужно обработчикам от шлюза погоды.
type Gateway interface {
	CurrentWeather(ctx context.Context, city string) (model.GatewayResponse, error)
	Forecast(ctx context.Context, city string) (model.GatewayResponse, error)
}

// Pinger - зависимость, которую проверяет /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type WeatherHandler struct {
	gateway Gateway
	checks  map[string]Pinger
	logger  *slog.Logger
}

func NewWeatherHandler(gw Gateway, checks map[string]Pinger, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{
		gateway: gw,
		checks:  checks,
		logger:  logger,
	}
}

// CurrentWeather - POST /weather
func (h *WeatherHandler) CurrentWeather(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "weather", h.gateway.CurrentWeather)
}

// Forecast - POST /forecast
func (h *WeatherHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "forecast", h.gateway.Forecast)
}

func (h *WeatherHandler) serve(w http.ResponseWriter, r *http.Request, op string,
	call func(context.Context, string) (model.GatewayResponse, error)) {
	start := time.Now()

	query, err := decodeQuery(w, r)
	if err != nil {
		sendError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.logger.Info("Запрос погоды", "op", op, "city", query.City)

	resp, err := call(r.Context(), query.City)
	if err != nil {
		status, detail := errorStatus(err)
		h.logger.Warn("Запрос погоды не выполнен",
			"op", op,
			"city", query.City,
			"status", status,
			"error", err,
			"cause", errors.Unwrap(err))
		sendError(w, status, detail)
		return
	}

	sendJSON(w, http.StatusOK, resp)

	h.logger.Info("Ответ отправлен",
		"op", op,
		"city", query.City,
		"duration_ms", time.Since(start).Milliseconds())
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (model.WeatherQuery, error) {
	var query model.WeatherQuery
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&query); err != nil {
		return query, errors.New("request body must be a JSON object with a string field \"city\"")
	}
	if query.City == "" {
		return query, errors.New("field \"city\" is required")
	}
	return query, nil
}

func errorStatus(err error) (int, string) {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		return http.StatusInternalServerError, "An error occurred: " + err.Error()
	}
	status := gwErr.Status
	// Статус провайдера уходит клиенту как есть, но только если он валиден
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	return status, gwErr.Message
}

// HealthCheck проверяет доступность подключенных зависимостей
func (h *WeatherHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}

	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			health[name] = "unhealthy"
			health["status"] = "degraded"
			h.logger.Error("Health check: зависимость недоступна", "dependency", name, "error", err)
		} else {
			health[name] = "healthy"
		}
	}

	status := http.StatusOK
	if health["status"] == "degraded" {
		status = http.StatusServiceUnavailable
	}

	sendJSON(w, status, health)
}

// Вспомогательные функции
func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, detail string) {
	sendJSON(w, status, model.ErrorResponse{Detail: detail})
}
