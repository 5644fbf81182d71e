package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/forecast-ranker/internal/config"
	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

// RatingMessage is the value published for each ranked location.
type RatingMessage struct {
	RunID    string                `json:"run_id"`
	Rank     int                   `json:"rank"`
	Favorite bool                  `json:"favorite"`
	Rating   domain.LocationRating `json:"rating"`
	RankedAt time.Time             `json:"ranked_at"`
}

// Writer produces rating messages to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured ratings topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishRatings writes one message per ranked location in a single
// WriteMessages call. Messages are keyed by location name.
func (w *Writer) PublishRatings(ctx context.Context, runID string, ranked, favorites []domain.LocationRating) error {
	if len(ranked) == 0 {
		return nil
	}
	msgs, err := buildMessages(runID, ranked, favorites, domain.Now().UTC())
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write ratings: %w", err)
	}
	w.logger.Debug("ratings published", "run_id", runID, "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func buildMessages(runID string, ranked, favorites []domain.LocationRating, rankedAt time.Time) ([]kafkago.Message, error) {
	isFavorite := make(map[string]bool, len(favorites))
	for _, f := range favorites {
		isFavorite[f.Location] = true
	}

	msgs := make([]kafkago.Message, len(ranked))
	for i, r := range ranked {
		msg, err := serializeToMessage(RatingMessage{
			RunID:    runID,
			Rank:     i + 1,
			Favorite: isFavorite[r.Location],
			Rating:   r,
			RankedAt: rankedAt,
		})
		if err != nil {
			return nil, err
		}
		msgs[i] = msg
	}
	return msgs, nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RatingMessage into a Kafka message.
func serializeToMessage(m RatingMessage) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize rating: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.Rating.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(m.RunID)},
			{Key: "favorite", Value: []byte(strconv.FormatBool(m.Favorite))},
			{Key: "ranked_at", Value: []byte(m.RankedAt.Format(time.RFC3339))},
		},
	}, nil
}
