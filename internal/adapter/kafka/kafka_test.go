package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-ranker/internal/config"
	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2022, 5, 26, 15, 10, 0, 0, time.UTC)
	msg, err := serializeToMessage(RatingMessage{
		RunID:    "run-1",
		Rank:     1,
		Favorite: true,
		Rating:   domain.LocationRating{Location: "MOSCOW", AvgMidTemp: 16.0, AvgHoursWithoutPrecipitation: 3.5},
		RankedAt: now,
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("MOSCOW"), msg.Key)
	assert.JSONEq(t, `{
		"run_id": "run-1",
		"rank": 1,
		"favorite": true,
		"rating": {"location": "MOSCOW", "avg_mid_temp": 16, "avg_hours_without_precipitation": 3.5},
		"ranked_at": "2022-05-26T15:10:00Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "favorite", msg.Headers[1].Key)
	assert.Equal(t, []byte("true"), msg.Headers[1].Value)
	assert.Equal(t, "ranked_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestPublishRatings_EmptyIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "ratings"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	assert.NoError(t, w.PublishRatings(context.Background(), "run-1", nil, nil))
}

func TestBuildMessages(t *testing.T) {
	ranked := []domain.LocationRating{
		{Location: "MOSCOW", AvgMidTemp: 16.0, AvgHoursWithoutPrecipitation: 3.5},
		{Location: "PARIS", AvgMidTemp: 16.0, AvgHoursWithoutPrecipitation: 2.5},
		{Location: "LONDON", AvgMidTemp: 15.0, AvgHoursWithoutPrecipitation: 10.0},
	}
	favorites := []domain.LocationRating{ranked[0], ranked[2]}
	rankedAt := time.Date(2022, 5, 26, 12, 0, 0, 0, time.UTC)

	msgs, err := buildMessages("run-7", ranked, favorites, rankedAt)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	wantFavorite := []string{"true", "false", "true"}
	for i, msg := range msgs {
		var decoded RatingMessage
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, i+1, decoded.Rank)
		assert.Equal(t, ranked[i], decoded.Rating)
		assert.Equal(t, "run-7", decoded.RunID)
		assert.True(t, rankedAt.Equal(decoded.RankedAt))
		assert.Equal(t, wantFavorite[i], string(msg.Headers[1].Value))
	}
}
