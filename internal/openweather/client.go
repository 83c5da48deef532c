package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gometeo/chatweather/internal/model"
)

const (
	Provider       = "OpenWeatherMap"
	DefaultBaseURL = "http://api.openweathermap.org/data/2.5"

	EndpointCurrent  = "weather"
	EndpointForecast = "forecast"

	maxPayloadBytes = 1 << 20
)

// ErrMalformedPayload - ответ 200, но тело не разбирается или неполное.
var ErrMalformedPayload = errors.New("malformed upstream payload")

// StatusError - провайдер ответил не 200.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: upstream returned HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// apiError - формат ошибки OpenWeatherMap; cod бывает и числом, и строкой
type apiError struct {
	Cod     any    `json:"cod"`
	Message string `json:"message"`
}

// Cache - хранилище сырых ответов; Get возвращает nil, nil при промахе.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      Cache
	keyFunc    func(endpoint, city string) string
	logger     *slog.Logger
}

type Option func(*Client)

// WithCache включает кэширование успешных ответов. keyFunc строит ключ по
// эндпоинту и городу.
func WithCache(cache Cache, keyFunc func(endpoint, city string) string) Option {
	return func(c *Client) {
		c.cache = cache
		c.keyFunc = keyFunc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient подменяет http.Client целиком (таймаут тогда задает вызывающий).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(apiKey, baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current запрашивает текущую погоду.
func (c *Client) Current(ctx context.Context, city string) (*model.CurrentWeather, error) {
	data, cached, err := get(ctx, c, EndpointCurrent, city, (*model.CurrentWeather).Validate)
	if err != nil {
		return nil, err
	}
	data.Cached = cached
	return data, nil
}

// Forecast запрашивает прогноз на 5 дней с шагом 3 часа.
func (c *Client) Forecast(ctx context.Context, city string) (*model.Forecast, error) {
	data, _, err := get[model.Forecast](ctx, c, EndpointForecast, city, nil)
	return data, err
}

// get возвращает разобранный ответ и признак того, что он взят из кэша.
func get[T any](ctx context.Context, c *Client, endpoint, city string, validate func(*T) error) (*T, bool, error) {
	key := ""
	if c.cache != nil {
		key = c.keyFunc(endpoint, city)
		cached, err := c.cache.Get(ctx, key)
		if err != nil {
			// Продолжаем - кэш не критичен
			c.logger.Warn("Ошибка чтения из кэша", "key", key, "error", err)
		}
		if cached != nil {
			if data, err := decode(cached, validate); err == nil {
				c.logger.Debug("Ответ провайдера из кэша", "endpoint", endpoint, "city", city)
				return data, true, nil
			}
		}
	}

	body, err := c.fetch(ctx, endpoint, city)
	if err != nil {
		return nil, false, err
	}
	data, err := decode(body, validate)
	if err != nil {
		return nil, false, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			c.logger.Warn("Не удалось сохранить в кэш", "key", key, "error", err)
		}
	}
	return data, false, nil
}

func decode[T any](body []byte, validate func(*T) error) (*T, error) {
	data := new(T)
	if err := json.Unmarshal(body, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if validate != nil {
		if err := validate(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	}
	return data, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, city string) ([]byte, error) {
	u, err := url.Parse(c.baseURL + "/" + endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error содержит полный URL вместе с appid - отдаем только причину
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Ответ провайдера",
		"endpoint", endpoint,
		"city", city,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil {
			statusErr.Message = apiErr.Message
		}
		return nil, statusErr
	}

	return body, nil
}
