package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/gometeo/chatweather/internal/model"
)

// Таймауты продюсера ограничивают SendMessage при недоступном брокере.
const (
	netTimeout   = 5 * time.Second
	retryBackoff = 100 * time.Millisecond
)

// Publisher отправляет наблюдения о погоде в Kafka.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewPublisher(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	// Ждем подтверждения от всех реплик
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Timeout = netTimeout
	config.Producer.Retry.Max = 1
	config.Producer.Retry.Backoff = retryBackoff
	config.Metadata.Retry.Max = 1
	config.Metadata.Retry.Backoff = retryBackoff
	config.Net.DialTimeout = netTimeout
	config.Net.ReadTimeout = netTimeout
	config.Net.WriteTimeout = netTimeout

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к Kafka: %w", err)
	}

	return NewPublisherWithProducer(producer, topic, logger), nil
}

func NewPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

// Publish сериализует наблюдение и отправляет его с ключом по городу,
// чтобы все записи одного города попадали в одну партицию. SendMessage не
// принимает контекст, поэтому Publish возвращается по ctx.Done(), не дожидаясь
// продюсера; само сообщение при этом может еще уйти.
func (p *Publisher) Publish(ctx context.Context, data model.WeatherData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strings.ToLower(data.City)),
		Value: sarama.ByteEncoder(bytes),
	}

	type result struct {
		partition int32
		offset    int64
		err       error
	}
	done := make(chan result, 1)
	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		done <- result{partition, offset, err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("отправка прервана: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("не удалось отправить сообщение: %w", res.err)
		}
		p.logger.Debug("Наблюдение отправлено",
			"city", data.City,
			"topic", p.topic,
			"partition", res.partition,
			"offset", res.offset)
		return nil
	}
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
