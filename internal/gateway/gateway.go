// Package gateway превращает ответы OpenWeatherMap в короткие фразы для чата.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gometeo/chatweather/internal/model"
	"github.com/gometeo/chatweather/internal/openweather"
)

const (
	// Прогноз идет интервалами по 3 часа, поэтому "завтра" - это запись
	// через сутки от первой.
	intervalHours = 3
	hoursPerDay   = 24
	tomorrowIndex = hoursPerDay / intervalHours

	// Отправка наблюдения идет в фоне и не дольше этого срока.
	publishTimeout = 5 * time.Second
)

// Upstream - провайдер погоды (реализуется openweather.Client).
type Upstream interface {
	Current(ctx context.Context, city string) (*model.CurrentWeather, error)
	Forecast(ctx context.Context, city string) (*model.Forecast, error)
}

// Publisher получает наблюдения после успешных запросов текущей погоды.
type Publisher interface {
	Publish(ctx context.Context, data model.WeatherData) error
}

type Gateway struct {
	upstream  Upstream
	publisher Publisher
	clock     Clock
	logger    *slog.Logger

	inflight sync.WaitGroup
}

type Option func(*Gateway)

func WithClock(clock Clock) Option {
	return func(g *Gateway) { g.clock = clock }
}

func WithPublisher(publisher Publisher) Option {
	return func(g *Gateway) { g.publisher = publisher }
}

func New(upstream Upstream, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		upstream: upstream,
		clock:    realClock{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CurrentWeather возвращает текущую погоду в городе с приветствием по времени суток.
func (g *Gateway) CurrentWeather(ctx context.Context, city string) (model.GatewayResponse, error) {
	data, err := g.upstream.Current(ctx, city)
	if err != nil {
		return model.GatewayResponse{}, currentWeatherError(err)
	}
	if err := data.Validate(); err != nil {
		return model.GatewayResponse{}, internalError(err)
	}

	now := g.clock.Now()
	description := *data.Weather[0].Description

	text := fmt.Sprintf("%s, the weather in %s is %s.\n", greeting(now), *data.Name, description) +
		fmt.Sprintf("The temperature is %s°C with a humidity of %s%% and wind speed of %s m/s.\n",
			formatNumber(data.Main.Temp), formatNumber(data.Main.Humidity), formatNumber(data.Wind.Speed)) +
		"Let me know if you'd like to hear tomorrow's forecast!"

	// Данные из кэша уже были отправлены, когда их получили от провайдера
	if !data.Cached {
		g.publish(ctx, city, data, now)
	}

	return model.GatewayResponse{Response: text}, nil
}

// Forecast возвращает прогноз на завтра. В ответе - город из запроса,
// а не имя, которое вернул провайдер.
func (g *Gateway) Forecast(ctx context.Context, city string) (model.GatewayResponse, error) {
	data, err := g.upstream.Forecast(ctx, city)
	if err != nil {
		return model.GatewayResponse{}, forecastError(err)
	}

	if len(data.List) <= tomorrowIndex {
		return model.GatewayResponse{}, internalError(
			fmt.Errorf("forecast has %d entries, need at least %d", len(data.List), tomorrowIndex+1))
	}
	entry := data.List[tomorrowIndex]
	if err := entry.Validate(); err != nil {
		return model.GatewayResponse{}, internalError(err)
	}

	text := fmt.Sprintf("Tomorrow in %s, expect %s with a temperature of %s°C.\n",
		city, *entry.Weather[0].Description, formatNumber(entry.Main.Temp)) +
		"Would you like to hear more about the week's forecast?"

	return model.GatewayResponse{Response: text}, nil
}

// Wait дожидается фоновых отправок наблюдений. Вызывается при остановке
// сервера до закрытия Publisher.
func (g *Gateway) Wait() {
	g.inflight.Wait()
}

// publish отправляет наблюдение в фоне: ответ клиенту не ждет брокер.
// Завершение запроса отправку не отменяет, ее ограничивает publishTimeout.
func (g *Gateway) publish(ctx context.Context, city string, data *model.CurrentWeather, now time.Time) {
	if g.publisher == nil {
		return
	}

	observation, err := model.NewObservation(data, openweather.Provider, now)
	if err != nil {
		g.logger.Warn("Наблюдение не отправлено", "city", city, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	g.inflight.Add(1)
	go func() {
		defer g.inflight.Done()
		defer cancel()

		if err := g.publisher.Publish(ctx, observation); err != nil {
			g.logger.Warn("Не удалось отправить наблюдение", "city", observation.City, "error", err)
		}
	}()
}
