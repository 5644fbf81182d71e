package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(date string, hours ...RawHour) RawDay {
	return RawDay{Date: date, Hours: hours}
}

func TestReduce_Scenario(t *testing.T) {
	doc := RawForecastDocument{Forecasts: []RawDay{
		day("2022-05-26",
			NewRawHour(5, 15, "cloudy"),
			NewRawHour(10, 22, "cloudy"),
			NewRawHour(11, 19, "rain"),
		),
	}}

	stats, err := Reduce("PARIS", doc)
	require.NoError(t, err)

	stat, ok := stats.Get("26-05")
	require.True(t, ok)
	assert.Equal(t, DailyStat{MidTemp: 20.5, HoursWithoutPrecipitation: 1}, stat)
}

func TestReduceDay(t *testing.T) {
	tests := []struct {
		name  string
		hours []RawHour
		want  DailyStat
	}{
		{
			name:  "window bounds are half-open",
			hours: []RawHour{NewRawHour(8, 100, "clear"), NewRawHour(9, 10, "clear"), NewRawHour(18, 20, "clear"), NewRawHour(19, 100, "clear")},
			want:  DailyStat{MidTemp: 15, HoursWithoutPrecipitation: 2},
		},
		{
			name:  "all dry conditions",
			hours: []RawHour{NewRawHour(9, 1, "clear"), NewRawHour(10, 1, "partly-cloudy"), NewRawHour(11, 1, "cloudy"), NewRawHour(12, 1, "overcast")},
			want:  DailyStat{MidTemp: 1, HoursWithoutPrecipitation: 4},
		},
		{
			name:  "unknown condition counts as precipitation",
			hours: []RawHour{NewRawHour(12, 4, "volcanic-ash"), NewRawHour(13, 4, "")},
			want:  DailyStat{MidTemp: 4, HoursWithoutPrecipitation: 0},
		},
		{
			name:  "rounds to one decimal",
			hours: []RawHour{NewRawHour(9, 1, "rain"), NewRawHour(10, 1, "rain"), NewRawHour(11, 2, "rain")},
			want:  DailyStat{MidTemp: 1.3},
		},
		{
			name:  "exact tie rounds to even",
			hours: []RawHour{NewRawHour(9, 20, "rain"), NewRawHour(10, 20, "rain"), NewRawHour(11, 20, "rain"), NewRawHour(12, 21, "rain")},
			want:  DailyStat{MidTemp: 20.2},
		},
		{
			name:  "exact tie above an odd digit rounds up",
			hours: []RawHour{NewRawHour(9, 20, "rain"), NewRawHour(10, 21, "rain"), NewRawHour(11, 21, "rain"), NewRawHour(12, 21, "rain")},
			want:  DailyStat{MidTemp: 20.8},
		},
		{
			name:  "negative temperatures",
			hours: []RawHour{NewRawHour(9, -3, "snow"), NewRawHour(10, -4, "snow")},
			want:  DailyStat{MidTemp: -3.5},
		},
		{
			name:  "no daytime hours",
			hours: []RawHour{NewRawHour(2, 30, "clear"), NewRawHour(23, 30, "clear")},
			want:  DailyStat{MidTemp: 0, EmptyWindow: true},
		},
		{
			name: "no hours at all",
			want: DailyStat{MidTemp: 0, EmptyWindow: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReduceDay(RawDay{Date: "2022-05-26", Hours: tt.hours})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReduce_PreservesDayOrder(t *testing.T) {
	doc := RawForecastDocument{Forecasts: []RawDay{
		day("2022-05-29", NewRawHour(10, 1, "clear")),
		day("2022-05-27", NewRawHour(10, 2, "clear")),
		day("2022-05-28", NewRawHour(10, 3, "clear")),
	}}

	stats, err := Reduce("LONDON", doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"29-05", "27-05", "28-05"}, stats.Dates())
}

func TestReduce_SameDayMonthAcrossYears(t *testing.T) {
	doc := RawForecastDocument{Forecasts: []RawDay{
		day("2022-12-31", NewRawHour(10, 1, "clear")),
		day("2023-01-01", NewRawHour(10, 2, "clear")),
		day("2023-12-31", NewRawHour(10, 3, "clear")),
	}}

	stats, err := Reduce("LONDON", doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"31-12", "01-01"}, stats.Dates())

	stat, _ := stats.Get("31-12")
	assert.Equal(t, 3.0, stat.MidTemp)
}

func TestReduce_InvalidDate(t *testing.T) {
	doc := RawForecastDocument{Forecasts: []RawDay{day("tomorrow")}}

	_, err := Reduce("LONDON", doc)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "forecasts[0].date", schemaErr.Field)
}

func TestReduce_IncompleteHour(t *testing.T) {
	doc := RawForecastDocument{Forecasts: []RawDay{day("2022-05-26", RawHour{})}}

	_, err := Reduce("LONDON", doc)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "LONDON", schemaErr.Location)
}

func TestReduce_ConcurrentCallsAgree(t *testing.T) {
	doc := RawForecastDocument{Forecasts: []RawDay{
		day("2022-05-26", NewRawHour(10, 22, "cloudy"), NewRawHour(11, 19, "rain")),
		day("2022-05-27", NewRawHour(12, 17, "clear")),
	}}
	want, err := Reduce("PARIS", doc)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]LocationStats, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Reduce("PARIS", doc)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
