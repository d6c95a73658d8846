package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/config"
	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes raw revenue records from the source topic in batches.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader creates a Kafka consumer for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSourceTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{
		reader:        r,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.BatchFlushInterval,
		logger:        logger,
	}
}

// ExtractBatch blocks for the first record, then keeps collecting until the
// batch is full or the flush interval elapses. A short batch is normal on a
// quiet topic; an empty one only happens when the parent context ends.
func (r *Reader) ExtractBatch(ctx context.Context) ([]domain.RawRecord, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := []domain.RawRecord{r.mapMessage(first)}

	flushCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(batch) < r.batchSize {
		msg, err := r.reader.FetchMessage(flushCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return batch, err
		}
		batch = append(batch, r.mapMessage(msg))
	}
	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessage converts a Kafka message into a domain RawRecord whose Commit
// acknowledges the message's offset.
func (r *Reader) mapMessage(msg kafkago.Message) domain.RawRecord {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawRecord{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}
