package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func decodeCurrent(t *testing.T, payload string) *CurrentWeather {
	t.Helper()
	var w CurrentWeather
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &w
}

func TestCurrentWeatherValidate(t *testing.T) {
	cases := map[string]string{
		"name":                   `{"weather":[{"description":"x"}],"main":{"temp":1,"humidity":2},"wind":{"speed":3}}`,
		"weather[0]":             `{"name":"A","weather":[],"main":{"temp":1,"humidity":2},"wind":{"speed":3}}`,
		"weather[0].description": `{"name":"A","weather":[{"main":"Rain"}],"main":{"temp":1,"humidity":2},"wind":{"speed":3}}`,
		"main.temp":              `{"name":"A","weather":[{"description":"x"}],"main":{"humidity":2},"wind":{"speed":3}}`,
		"main.humidity":          `{"name":"A","weather":[{"description":"x"}],"main":{"temp":1},"wind":{"speed":3}}`,
		"wind.speed":             `{"name":"A","weather":[{"description":"x"}],"main":{"temp":1,"humidity":2}}`,
	}

	for field, payload := range cases {
		err := decodeCurrent(t, payload).Validate()
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("%s: expected ErrMissingField, got %v", field, err)
			continue
		}
		if want := `missing field "` + field + `"`; err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	}

	ok := decodeCurrent(t, `{"name":"A","weather":[{"description":"x"}],"main":{"temp":1,"humidity":2},"wind":{"speed":3}}`)
	if err := ok.Validate(); err != nil {
		t.Errorf("complete payload must validate: %v", err)
	}
}

func TestNewObservation(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data := decodeCurrent(t, `{"name":"London","weather":[{"description":"clear sky"}],"main":{"temp":15.2,"humidity":60},"wind":{"speed":3.1}}`)

	got, err := NewObservation(data, "OpenWeatherMap", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := WeatherData{City: "London", Temp: 15.2, Condition: "clear sky", Provider: "OpenWeatherMap", Timestamp: at}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if _, err := NewObservation(decodeCurrent(t, `{"name":"London"}`), "OpenWeatherMap", at); err == nil {
		t.Error("expected error for incomplete payload")
	}
}
