package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gometeo/chatweather/internal/config"
	"github.com/gometeo/chatweather/internal/events"
	"github.com/gometeo/chatweather/internal/model"
	"github.com/gometeo/chatweather/internal/openweather"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	logger.Info("Запуск Weather Collector...")

	cfg := config.Load()
	if cfg.OWMAPIKey == "" || len(cfg.KafkaBrokers) == 0 || cfg.CollectInterval <= 0 {
		logger.Error("Нужны OWM_API_KEY, KAFKA_BROKERS и положительный COLLECT_INTERVAL_SECONDS")
		os.Exit(1)
	}

	// 1. Настройка Kafka Producer
	publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	if err != nil {
		logger.Error("Ошибка подключения к Kafka", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Ошибка при закрытии продюсера", "error", err)
		}
	}()

	client := openweather.NewClient(cfg.OWMAPIKey, cfg.OWMBaseURL, cfg.UpstreamTimeout, openweather.WithLogger(logger))

	// 2. Отмена по Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.CollectInterval)
	defer ticker.Stop()

	logger.Info("Начинаем сбор данных...", "cities", cfg.CollectCities, "interval", cfg.CollectInterval)

	collect(ctx, client, publisher, cfg.CollectCities, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Получен сигнал завершения. Остановка...")
			return
		case <-ticker.C:
			collect(ctx, client, publisher, cfg.CollectCities, logger)
		}
	}
}

// collect опрашивает провайдера по каждому городу и отправляет наблюдения.
// Ошибка по одному городу не прерывает обход остальных.
func collect(ctx context.Context, client *openweather.Client, publisher *events.Publisher, cities []string, logger *slog.Logger) {
	for _, city := range cities {
		if ctx.Err() != nil {
			return
		}

		data, err := client.Current(ctx, city)
		if err != nil {
			logger.Error("Не удалось получить погоду", "city", city, "error", err)
			continue
		}

		observation, err := model.NewObservation(data, openweather.Provider, time.Now())
		if err != nil {
			logger.Error("Некорректный ответ провайдера", "city", city, "error", err)
			continue
		}

		if err := publisher.Publish(ctx, observation); err != nil {
			logger.Error("Не удалось отправить сообщение", "city", city, "error", err)
			continue
		}

		logger.Info("Погода отправлена",
			"city", observation.City,
			"temp", observation.Temp)
	}
}
