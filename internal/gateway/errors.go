package gateway

import (
	"errors"
	"net/http"

	"github.com/gometeo/chatweather/internal/openweather"
)

// Kind - класс ошибки шлюза.
type Kind int

const (
	KindInternal Kind = iota
	KindCityNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindCityNotFound:
		return "CityNotFound"
	case KindUpstream:
		return "UpstreamError"
	default:
		return "InternalError"
	}
}

const (
	msgCityNotFound        = "City not found. Try checking for typos or specify a nearby city."
	msgWeatherUnavailable  = "Unable to fetch weather data at the moment."
	msgForecastUnavailable = "Unable to fetch the forecast. Try a different city."
	msgInternalPrefix      = "An error occurred: "
)

// Error - результат неудачного запроса: класс, HTTP-статус для клиента и
// текст для поля detail. Err хранит исходную причину.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func internalError(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: msgInternalPrefix + err.Error(),
		Err:     err,
	}
}

// currentWeatherError различает 404 и прочие статусы провайдера.
func currentWeatherError(err error) *Error {
	var statusErr *openweather.StatusError
	if !errors.As(err, &statusErr) {
		return internalError(err)
	}
	if statusErr.StatusCode == http.StatusNotFound {
		return &Error{Kind: KindCityNotFound, Status: http.StatusNotFound, Message: msgCityNotFound, Err: err}
	}
	return &Error{Kind: KindUpstream, Status: statusErr.StatusCode, Message: msgWeatherUnavailable, Err: err}
}

// forecastError сводит любой статус провайдера к 404 - так отвечал исходный
// сервис, и клиенты на это рассчитывают.
func forecastError(err error) *Error {
	var statusErr *openweather.StatusError
	if !errors.As(err, &statusErr) {
		return internalError(err)
	}
	return &Error{Kind: KindUpstream, Status: http.StatusNotFound, Message: msgForecastUnavailable, Err: err}
}
