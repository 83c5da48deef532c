package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// WeatherQuery - тело входящего запроса
type WeatherQuery struct {
	City string `json:"city"`
}

// GatewayResponse - единственный формат успешного ответа
type GatewayResponse struct {
	Response string `json:"response"`
}

// ErrorResponse повторяет формат ошибок исходного сервиса: {"detail": "..."}
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// WeatherData - структура, которая летает через Kafka
type WeatherData struct {
	City      string    `json:"city"`
	Temp      float64   `json:"temperature"`
	Condition string    `json:"condition"`
	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrMissingField возвращается, когда в ответе провайдера нет обязательного поля.
var ErrMissingField = errors.New("missing field")

func missing(field string) error {
	return fmt.Errorf("%w %q", ErrMissingField, field)
}

// Condition - элемент массива weather[] OpenWeatherMap
type Condition struct {
	Main        string  `json:"main"`
	Description *string `json:"description"`
}

// Readings - блок main{}. Числа храним как json.Number, чтобы отдать их
// клиенту ровно в том виде, в каком их прислал провайдер.
type Readings struct {
	Temp     json.Number `json:"temp"`
	Humidity json.Number `json:"humidity"`
}

type Wind struct {
	Speed json.Number `json:"speed"`
}

// CurrentWeather - ответ /data/2.5/weather (только используемые поля)
type CurrentWeather struct {
	Name    *string     `json:"name"`
	Weather []Condition `json:"weather"`
	Main    *Readings   `json:"main"`
	Wind    *Wind       `json:"wind"`

	// Cached - данные взяты из кэша, а не получены от провайдера только что
	Cached bool `json:"-"`
}

// Validate проверяет наличие всех полей, из которых собирается ответ.
func (w *CurrentWeather) Validate() error {
	if w.Name == nil {
		return missing("name")
	}
	if len(w.Weather) == 0 {
		return missing("weather[0]")
	}
	if w.Weather[0].Description == nil {
		return missing("weather[0].description")
	}
	if w.Main == nil || w.Main.Temp == "" {
		return missing("main.temp")
	}
	if w.Main.Humidity == "" {
		return missing("main.humidity")
	}
	if w.Wind == nil || w.Wind.Speed == "" {
		return missing("wind.speed")
	}
	return nil
}

// ForecastEntry - один 3-часовой интервал из list[]
type ForecastEntry struct {
	Dt      int64       `json:"dt"`
	Weather []Condition `json:"weather"`
	Main    *Readings   `json:"main"`
	DtTxt   string      `json:"dt_txt"`
}

func (e *ForecastEntry) Validate() error {
	if len(e.Weather) == 0 {
		return missing("weather[0]")
	}
	if e.Weather[0].Description == nil {
		return missing("weather[0].description")
	}
	if e.Main == nil || e.Main.Temp == "" {
		return missing("main.temp")
	}
	return nil
}

// Forecast - ответ /data/2.5/forecast
type Forecast struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	List []ForecastEntry `json:"list"`
}

// NewObservation собирает событие для Kafka из проверенного ответа провайдера.
func NewObservation(data *CurrentWeather, provider string, at time.Time) (WeatherData, error) {
	if err := data.Validate(); err != nil {
		return WeatherData{}, err
	}
	temp, err := data.Main.Temp.Float64()
	if err != nil {
		return WeatherData{}, fmt.Errorf("main.temp: %w", err)
	}
	return WeatherData{
		City:      *data.Name,
		Temp:      temp,
		Condition: *data.Weather[0].Description,
		Provider:  provider,
		Timestamp: at,
	}, nil
}
