package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/config"
	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces forecasts to a Kafka topic.
// It implements pipeline.BatchPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes multiple forecasts to the sink Kafka
// topic in a single WriteMessages call for efficiency.
func (w *Writer) PublishBatch(ctx context.Context, forecasts []domain.Forecast) error {
	if len(forecasts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(forecasts))
	for i := range forecasts {
		msg, err := serializeToMessage(forecasts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Forecast into a Kafka message keyed by its
// date, so re-forecasts of the same day compact onto one key.
func serializeToMessage(f domain.Forecast) (kafkago.Message, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(domain.DateKey(f.Date)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "day_of_week", Value: []byte(f.DayOfWeek)},
			{Key: "generated_at", Value: []byte(f.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
