// Command genmock writes reproducible forecast fixtures, one {key}.json per
// location, for running the ranker against FORECAST_DIR. Every generated
// document is decoded and reduced with the domain package before it is
// written, so fixtures always match what the pipeline accepts.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -days 7 -start 2022-05-26
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

var conditions = []string{
	"clear", "partly-cloudy", "cloudy", "overcast",
	"light-rain", "rain", "heavy-rain", "thunderstorm", "snow", "drizzle",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write fixtures into")
	days := flag.Int("days", 7, "number of forecast days per location")
	start := flag.String("start", "2022-05-26", "first forecast date (YYYY-MM-DD)")
	locations := flag.String("locations", "", "comma-separated location keys (default: built-in cities)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *days < 1 {
		return fmt.Errorf("invalid -days: %d", *days)
	}
	first, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	keys := locationKeys(*locations)
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	for _, key := range keys {
		doc := generate(key, first, *days)
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}

		// Round-trip through the pipeline's own decoder and reducer.
		decoded, err := domain.DecodeForecast(key, data)
		if err != nil {
			return err
		}
		stats, err := domain.Reduce(key, decoded)
		if err != nil {
			return err
		}

		path := filepath.Join(*out, key+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		rating, _ := domain.Rate(domain.LocationEntry{Location: key, Stats: stats})
		log.Printf("%s: %d days, avg temp %.1f, avg dry hours %.1f",
			key, stats.Len(), rating.AvgMidTemp, rating.AvgHoursWithoutPrecipitation)
	}

	log.Printf("wrote %d fixtures to %s", len(keys), *out)
	return nil
}

func locationKeys(flagValue string) []string {
	if flagValue == "" {
		defaults := domain.DefaultLocations()
		keys := make([]string, len(defaults))
		for i, l := range defaults {
			keys[i] = l.Key
		}
		return keys
	}
	var keys []string
	for _, k := range strings.Split(flagValue, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// generate builds a full 24-hour forecast per day. The generator is seeded
// from the key so the same key always yields the same document.
func generate(key string, first time.Time, days int) domain.RawForecastDocument {
	h := fnv.New64a()
	h.Write([]byte(key)) //nolint:errcheck // hash writes never fail
	rng := rand.New(rand.NewPCG(h.Sum64(), uint64(days)))

	base := rng.IntN(30) - 5
	doc := domain.RawForecastDocument{Forecasts: make([]domain.RawDay, 0, days)}
	for d := range days {
		day := domain.RawDay{Date: first.AddDate(0, 0, d).Format(time.DateOnly)}
		wetness := rng.IntN(len(conditions))
		for hour := range 24 {
			// Warmest around 15:00.
			diurnal := 6 - abs(hour-15)/2
			temp := base + diurnal + rng.IntN(5) - 2
			cond := conditions[rng.IntN(len(conditions))]
			if rng.IntN(len(conditions)) >= wetness {
				cond = conditions[rng.IntN(4)]
			}
			day.Hours = append(day.Hours, domain.NewRawHour(hour, temp, cond))
		}
		doc.Forecasts = append(doc.Forecasts, day)
	}
	return doc
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
