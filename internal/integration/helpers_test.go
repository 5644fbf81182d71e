//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0", kafka.WithClusterID("forecast-ranker"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type day struct {
	date string
	// temps holds the 09:00-18:00 temperatures; dry marks the first n hours as clear.
	temps []int
	dry   int
}

// writeForecast stores a forecast document under dir as {key}.json.
func writeForecast(t *testing.T, dir, key string, days ...day) {
	t.Helper()

	type hour struct {
		Hour      int    `json:"hour"`
		Temp      int    `json:"temp"`
		Condition string `json:"condition"`
	}
	type forecastDay struct {
		Date  string `json:"date"`
		Hours []hour `json:"hours"`
	}

	doc := struct {
		Forecasts []forecastDay `json:"forecasts"`
	}{}
	for _, d := range days {
		fd := forecastDay{Date: d.date}
		fd.Hours = append(fd.Hours, hour{Hour: 3, Temp: -40, Condition: "clear"})
		for i, temp := range d.temps {
			cond := "rain"
			if i < d.dry {
				cond = "clear"
			}
			fd.Hours = append(fd.Hours, hour{Hour: 9 + i, Temp: temp, Condition: cond})
		}
		fd.Hours = append(fd.Hours, hour{Hour: 21, Temp: 40, Condition: "clear"})
		doc.Forecasts = append(doc.Forecasts, fd)
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("%s.json", key)), data, 0o644))
}
