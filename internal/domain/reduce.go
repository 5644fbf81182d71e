package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Daytime window, half-open: [daytimeStart, daytimeEnd).
const (
	daytimeStart = 9
	daytimeEnd   = 19
)

const (
	rawDateLayout = "2006-01-02"
	statKeyLayout = "02-01"
)

var dryConditions = map[string]struct{}{
	"clear":         {},
	"partly-cloudy": {},
	"cloudy":        {},
	"overcast":      {},
}

// IsDry reports whether condition is in the closed set of non-precipitating
// conditions.
func IsDry(condition string) bool {
	_, ok := dryConditions[condition]
	return ok
}

// Reduce summarizes every day of doc. It has no side effects and is safe to
// call concurrently.
func Reduce(location string, doc RawForecastDocument) (LocationStats, error) {
	var stats LocationStats
	for i, day := range doc.Forecasts {
		date, err := time.Parse(rawDateLayout, day.Date)
		if err != nil {
			return LocationStats{}, &SchemaError{
				Location: location,
				Field:    fmt.Sprintf("forecasts[%d].date", i),
				Err:      err,
			}
		}
		stat, err := ReduceDay(day)
		if err != nil {
			return LocationStats{}, &SchemaError{
				Location: location,
				Field:    fmt.Sprintf("forecasts[%d].hours", i),
				Err:      err,
			}
		}
		stats.Set(date.Format(statKeyLayout), stat)
	}
	return stats, nil
}

var errIncompleteHour = errors.New("hour sample is missing fields")

// ReduceDay computes the daytime statistics for a single day.
func ReduceDay(day RawDay) (DailyStat, error) {
	var sum, count, dry int
	for _, h := range day.Hours {
		if h.Hour == nil || h.Temperature == nil || h.Condition == nil {
			return DailyStat{}, errIncompleteHour
		}
		hour := int(*h.Hour)
		if hour < daytimeStart || hour >= daytimeEnd {
			continue
		}
		count++
		sum += int(*h.Temperature)
		if IsDry(*h.Condition) {
			dry++
		}
	}
	return DailyStat{
		MidTemp:                   round1(float64(sum) / float64(max(count, 1))),
		HoursWithoutPrecipitation: dry,
		EmptyWindow:               count == 0,
	}, nil
}

// round1 rounds the exact binary value to one decimal place. Exact ties go
// to the even digit.
func round1(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return f
}
