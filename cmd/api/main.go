package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gometeo/chatweather/internal/api"
	"github.com/gometeo/chatweather/internal/api/handlers"
	"github.com/gometeo/chatweather/internal/cache"
	"github.com/gometeo/chatweather/internal/config"
	"github.com/gometeo/chatweather/internal/events"
	"github.com/gometeo/chatweather/internal/gateway"
	"github.com/gometeo/chatweather/internal/openweather"
)

func main() {
	// Загрузка конфигурации
	cfg := config.Load()

	// Настройка логирования
	logger := setupLogger(cfg)
	logger.Info("Запуск Weather Gateway...")

	if err := run(cfg, logger); err != nil {
		logger.Error("Сервис остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
}

// run поднимает зависимости и сервер; все отложенные Close выполняются до
// выхода из процесса.
func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.OWMAPIKey == "" {
		return errors.New("не задан OWM_API_KEY")
	}

	logger.Info("Конфигурация загружена",
		"port", cfg.HTTPPort,
		"upstream", cfg.OWMBaseURL,
		"upstream_timeout", cfg.UpstreamTimeout,
		"origins", cfg.AllowedOrigins,
		"redis", cfg.RedisAddr,
		"kafka", cfg.KafkaBrokers)

	clientOpts := []openweather.Option{openweather.WithLogger(logger)}
	gatewayOpts := []gateway.Option{}
	checks := map[string]handlers.Pinger{}

	// 1. Redis (опционально)
	if cfg.RedisAddr != "" {
		payloadCache, err := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, logger)
		if err != nil {
			return fmt.Errorf("не удалось подключиться к Redis: %w", err)
		}
		defer func() {
			if err := payloadCache.Close(); err != nil {
				logger.Error("Ошибка при закрытии Redis", "error", err)
			}
		}()

		clientOpts = append(clientOpts, openweather.WithCache(payloadCache, cache.PayloadKey))
		checks["redis"] = payloadCache
	}

	// 2. Kafka (опционально)
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			return fmt.Errorf("не удалось подключиться к Kafka: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("Ошибка при закрытии продюсера", "error", err)
			}
		}()

		gatewayOpts = append(gatewayOpts, gateway.WithPublisher(publisher))
		logger.Info("Наблюдения публикуются в Kafka", "topic", cfg.KafkaTopic)
	}

	// 3. Шлюз и маршруты
	client := openweather.NewClient(cfg.OWMAPIKey, cfg.OWMBaseURL, cfg.UpstreamTimeout, clientOpts...)
	gw := gateway.New(client, logger, gatewayOpts...)
	weatherHandler := handlers.NewWeatherHandler(gw, checks, logger)

	// 4. Настройка HTTP сервера
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.NewRouter(weatherHandler, cfg.AllowedOrigins, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("Сервер запущен", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Ожидание сигнала завершения
	var runErr error
	select {
	case <-stopChan:
		logger.Info("Получен сигнал завершения...")
	case err := <-serverErr:
		runErr = fmt.Errorf("ошибка сервера: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Ошибка при остановке сервера", "error", err)
	} else {
		logger.Info("Сервер остановлен")
	}

	// Фоновые отправки в Kafka должны закончиться до закрытия продюсера
	gw.Wait()
	return runErr
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)

	// Для продакшена используем JSON формат
	if cfg.Env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
