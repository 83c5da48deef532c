package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gometeo/chatweather/internal/api/handlers"
)

// NewRouter собирает маршруты и middleware. CORS оборачивает роутер целиком,
// иначе preflight-запросы OPTIONS не доходят до обработчика CORS.
func NewRouter(h *handlers.WeatherHandler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/weather", h.CurrentWeather).Methods(http.MethodPost)
	router.HandleFunc("/forecast", h.Forecast).Methods(http.MethodPost)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	router.Use(requestID)
	router.Use(loggingMiddleware(logger))

	return cors(allowedOrigins)(router)
}
