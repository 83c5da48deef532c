package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// PayloadCache хранит сырые ответы OpenWeatherMap с TTL.
type PayloadCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*PayloadCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	logger.Info("Успешное подключение к Redis", "addr", addr)

	return &PayloadCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (c *PayloadCache) Close() error {
	return c.client.Close()
}

func (c *PayloadCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *PayloadCache) Set(ctx context.Context, key string, payload []byte) error {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи в Redis: %w", err)
	}

	c.logger.Debug("Данные сохранены в кэш", "key", key, "ttl", c.ttl)
	return nil
}

func (c *PayloadCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Ключ не найден - это не ошибка
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из Redis: %w", err)
	}

	c.logger.Debug("Данные получены из кэша", "key", key)
	return val, nil
}

// PayloadKey строит ключ вида weather:<endpoint>:<город в нижнем регистре>
func PayloadKey(endpoint, city string) string {
	return "weather:" + endpoint + ":" + strings.ToLower(strings.TrimSpace(city))
}
