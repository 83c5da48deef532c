package gateway

import (
	"encoding/json"
	"testing"
	"time"
)

func TestGreeting(t *testing.T) {
	cases := map[int]string{
		0:  "Good morning",
		11: "Good morning",
		12: "Good afternoon",
		17: "Good afternoon",
		18: "Good evening",
		23: "Good evening",
	}
	for hour, want := range cases {
		now := time.Date(2024, time.June, 1, hour, 59, 59, 0, time.Local)
		if got := greeting(now); got != want {
			t.Errorf("hour %d: expected %q, got %q", hour, want, got)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[string]string{
		"60":       "60",
		"-3":       "-3",
		"15.2":     "15.2",
		"10.0":     "10.0",
		"15.20":    "15.2",
		"3.10":     "3.1",
		"-0.0":     "-0.0",
		"1e2":      "100.0",
		"0.00001":  "1e-05",
		"273.15":   "273.15",
		"12.34567": "12.34567",
	}
	for in, want := range cases {
		if got := formatNumber(json.Number(in)); got != want {
			t.Errorf("%s: expected %q, got %q", in, want, got)
		}
	}
}
