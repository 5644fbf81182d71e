//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-ranker/internal/adapter/forecast"
	"github.com/couchcryptid/forecast-ranker/internal/adapter/kafka"
	"github.com/couchcryptid/forecast-ranker/internal/adapter/storage"
	"github.com/couchcryptid/forecast-ranker/internal/config"
	"github.com/couchcryptid/forecast-ranker/internal/domain"
	"github.com/couchcryptid/forecast-ranker/internal/observability"
	"github.com/couchcryptid/forecast-ranker/internal/pipeline"
)

const testRatingsTopic = "test-location-ratings"

type publishedRating struct {
	Message kafka.RatingMessage
	Key     string
	Headers map[string]string
}

func readRating(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedRating {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from ratings topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var m kafka.RatingMessage
	require.NoError(t, json.Unmarshal(msg.Value, &m), "unmarshal rating message")

	return publishedRating{Message: m, Key: string(msg.Key), Headers: headers}
}

// TestPipelineEndToEnd runs fetch, reduce, persist, select and publish against
// forecast files on disk and a real broker.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRatingsTopic)

	forecastDir := t.TempDir()
	ten := []int{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}
	twenty := []int{20, 20, 20, 20, 20, 20, 20, 20, 20, 20}
	writeForecast(t, forecastDir, "MOSCOW", day{date: "2022-05-26", temps: twenty, dry: 4}, day{date: "2022-05-27", temps: ten, dry: 3})
	writeForecast(t, forecastDir, "PARIS", day{date: "2022-05-26", temps: ten, dry: 8})
	writeForecast(t, forecastDir, "CAIRO", day{date: "2022-05-26", temps: twenty, dry: 1})
	require.NoError(t, os.WriteFile(filepath.Join(forecastDir, "ROMA.json"), []byte(`{"forecasts": "soon"}`), 0o644))

	artifactPath := filepath.Join(t.TempDir(), "data_file.json")
	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testRatingsTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	defer writer.Close()

	p := pipeline.New(
		forecast.NewDirSource(forecastDir),
		storage.NewFileStore(artifactPath),
		writer,
		discardLogger(),
		observability.NewMetricsForTesting(),
		pipeline.Options{FetchTimeout: 5 * time.Second, ReduceWorkers: 2},
	)

	locations := []domain.Location{
		{Name: "MOSCOW", Key: "MOSCOW"},
		{Name: "PARIS", Key: "PARIS"},
		{Name: "CAIRO", Key: "CAIRO"},
		{Name: "ROMA", Key: "ROMA"},
	}
	res, err := p.Run(ctx, locations)
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, res.Failures[0], &schemaErr)
	assert.Equal(t, "ROMA", schemaErr.Location)

	// CAIRO: 20.0/1.0, MOSCOW: 15.0/3.5, PARIS: 10.0/8.0
	require.Len(t, res.Ranked, 3)
	assert.Equal(t, "CAIRO", res.Ranked[0].Location)
	assert.Equal(t, "MOSCOW", res.Ranked[1].Location)
	assert.Equal(t, "PARIS", res.Ranked[2].Location)
	assert.Equal(t, []string{"CAIRO", "MOSCOW", "PARIS"}, names(res.Favorites))

	persisted, err := storage.NewFileStore(artifactPath).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 3)
	moscow, ok := persisted.Lookup("MOSCOW")
	require.True(t, ok)
	assert.Equal(t, []string{"26-05", "27-05"}, moscow.Dates())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testRatingsTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
	})
	defer consumer.Close()

	got := make(map[string]publishedRating, len(res.Ranked))
	for range res.Ranked {
		r := readRating(ctx, t, consumer)
		got[r.Key] = r
	}

	require.Len(t, got, 3)
	for i, want := range res.Ranked {
		r, ok := got[want.Location]
		require.True(t, ok, "missing rating for %s", want.Location)
		assert.Equal(t, res.RunID, r.Headers["run_id"])
		assert.Equal(t, "true", r.Headers["favorite"])
		_, err := time.Parse(time.RFC3339, r.Headers["ranked_at"])
		assert.NoError(t, err, "ranked_at should be valid RFC3339")
		assert.Equal(t, i+1, r.Message.Rank)
		assert.Equal(t, want, r.Message.Rating)
	}
}

func names(ratings []domain.LocationRating) []string {
	out := make([]string, len(ratings))
	for i, r := range ratings {
		out[i] = r.Location
	}
	return out
}
