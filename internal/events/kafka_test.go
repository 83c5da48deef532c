package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/gometeo/chatweather/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishEncodesObservation(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got model.WeatherData
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.City != "London" || got.Temp != 15.2 || got.Condition != "clear sky" {
			return fmt.Errorf("unexpected observation %+v", got)
		}
		return nil
	})

	p := NewPublisherWithProducer(producer, "weather_data", testLogger())
	defer p.Close()

	err := p.Publish(context.Background(), model.WeatherData{
		City:      "London",
		Temp:      15.2,
		Condition: "clear sky",
		Provider:  "OpenWeatherMap",
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestPublishPropagatesProducerError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewPublisherWithProducer(producer, "weather_data", testLogger())
	defer p.Close()

	err := p.Publish(context.Background(), model.WeatherData{City: "Paris"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
}

func TestPublishSkipsCancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	p := NewPublisherWithProducer(producer, "weather_data", testLogger())
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Publish(ctx, model.WeatherData{City: "Berlin"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// stuckProducer не отвечает, пока не закрыт release.
type stuckProducer struct {
	sarama.SyncProducer
	release chan struct{}
}

func (p *stuckProducer) SendMessage(*sarama.ProducerMessage) (int32, int64, error) {
	<-p.release
	return 0, 0, nil
}

func TestPublishHonoursDeadline(t *testing.T) {
	producer := &stuckProducer{release: make(chan struct{})}
	defer close(producer.release)
	p := NewPublisherWithProducer(producer, "weather_data", testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Publish(ctx, model.WeatherData{City: "Oslo"})
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Publish ignored the deadline: returned after %v", elapsed)
	}
}
