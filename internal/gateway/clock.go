package gateway

import "time"

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// ClockFunc позволяет передать обычную функцию как Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
