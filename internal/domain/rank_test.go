package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsOf(days ...DailyStat) LocationStats {
	var s LocationStats
	for i, d := range days {
		s.Set(string(rune('a'+i)), d)
	}
	return s
}

func scenarioCollection() ReducedCollection {
	return ReducedCollection{
		{Location: "PARIS", Stats: statsOf(
			DailyStat{MidTemp: 16.0, HoursWithoutPrecipitation: 3},
			DailyStat{MidTemp: 16.0, HoursWithoutPrecipitation: 2},
		)},
		{Location: "LONDON", Stats: statsOf(
			DailyStat{MidTemp: 14.0, HoursWithoutPrecipitation: 10},
			DailyStat{MidTemp: 16.0, HoursWithoutPrecipitation: 10},
		)},
		{Location: "MOSCOW", Stats: statsOf(
			DailyStat{MidTemp: 18.0, HoursWithoutPrecipitation: 7},
			DailyStat{MidTemp: 14.0, HoursWithoutPrecipitation: 0},
		)},
	}
}

func TestRank(t *testing.T) {
	ranked := Rank(scenarioCollection())

	assert.Equal(t, []LocationRating{
		{Location: "MOSCOW", AvgMidTemp: 16.0, AvgHoursWithoutPrecipitation: 3.5},
		{Location: "PARIS", AvgMidTemp: 16.0, AvgHoursWithoutPrecipitation: 2.5},
		{Location: "LONDON", AvgMidTemp: 15.0, AvgHoursWithoutPrecipitation: 10.0},
	}, ranked)
}

func TestRank_StableOnFullTies(t *testing.T) {
	same := DailyStat{MidTemp: 12, HoursWithoutPrecipitation: 4}
	collection := ReducedCollection{
		{Location: "B", Stats: statsOf(same)},
		{Location: "A", Stats: statsOf(same)},
		{Location: "C", Stats: statsOf(same)},
	}

	ranked := Rank(collection)

	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Location
	}
	assert.Equal(t, []string{"B", "A", "C"}, names)
}

func TestRank_SkipsLocationsWithoutDays(t *testing.T) {
	collection := ReducedCollection{
		{Location: "EMPTY"},
		{Location: "ROMA", Stats: statsOf(DailyStat{MidTemp: 25, HoursWithoutPrecipitation: 9})},
	}

	ranked := Rank(collection)
	assert.Len(t, ranked, 1)
	assert.Equal(t, "ROMA", ranked[0].Location)
}

func TestRate_RoundsAverages(t *testing.T) {
	r, ok := Rate(LocationEntry{Location: "X", Stats: statsOf(
		DailyStat{MidTemp: 10.1, HoursWithoutPrecipitation: 1},
		DailyStat{MidTemp: 10.2, HoursWithoutPrecipitation: 1},
		DailyStat{MidTemp: 10.2, HoursWithoutPrecipitation: 2},
	)})

	assert.True(t, ok)
	assert.Equal(t, 10.2, r.AvgMidTemp)
	assert.Equal(t, 1.3, r.AvgHoursWithoutPrecipitation)
}

func TestRate_RoundsBinaryValueNotDecimalHalf(t *testing.T) {
	tests := []struct {
		name  string
		temps []float64
		want  float64
	}{
		// (0.3+0.4)/2 is stored just below 0.35.
		{name: "just below half", temps: []float64{0.3, 0.4}, want: 0.3},
		{name: "exact quarter tie", temps: []float64{0.2, 0.3}, want: 0.2},
		{name: "negative tie", temps: []float64{-20.2, -20.3}, want: -20.2},
		{name: "no rounding needed", temps: []float64{16, 16}, want: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := make([]DailyStat, len(tt.temps))
			for i, temp := range tt.temps {
				days[i] = DailyStat{MidTemp: temp}
			}
			r, ok := Rate(LocationEntry{Location: "X", Stats: statsOf(days...)})
			require.True(t, ok)
			assert.Equal(t, tt.want, r.AvgMidTemp)
		})
	}
}

func TestSelectFavorites_Scenario(t *testing.T) {
	favorites := SelectFavorites(Rank(scenarioCollection()))

	assert.Equal(t, []LocationRating{
		{Location: "MOSCOW", AvgMidTemp: 16.0, AvgHoursWithoutPrecipitation: 3.5},
		{Location: "LONDON", AvgMidTemp: 15.0, AvgHoursWithoutPrecipitation: 10.0},
	}, favorites)
}

func rating(name string, temp, hours float64) LocationRating {
	return LocationRating{Location: name, AvgMidTemp: temp, AvgHoursWithoutPrecipitation: hours}
}

func TestSelectFavorites(t *testing.T) {
	tests := []struct {
		name   string
		ranked []LocationRating
		want   []string
	}{
		{name: "empty", ranked: nil, want: nil},
		{name: "single", ranked: []LocationRating{rating("A", 10, 1)}, want: []string{"A"}},
		{
			name:   "stops at first entry improving neither metric",
			ranked: []LocationRating{rating("A", 20, 5), rating("B", 18, 4), rating("C", 15, 9)},
			want:   []string{"A"},
		},
		{
			name:   "later tier with more dry hours raises the bar",
			ranked: []LocationRating{rating("A", 20, 2), rating("B", 18, 6), rating("C", 17, 5), rating("D", 10, 11)},
			want:   []string{"A", "B"},
		},
		{
			name:   "each improvement on dry hours is kept",
			ranked: []LocationRating{rating("A", 20, 2), rating("B", 18, 6), rating("C", 17, 7), rating("D", 10, 8)},
			want:   []string{"A", "B", "C", "D"},
		},
		{
			name:   "equal temperature tier skipped but walk continues",
			ranked: []LocationRating{rating("A", 20, 5), rating("B", 20, 3), rating("C", 20, 1), rating("D", 19, 7)},
			want:   []string{"A", "D"},
		},
		{
			name:   "equal dry hours in lower tier stops the walk",
			ranked: []LocationRating{rating("A", 20, 5), rating("B", 19, 5), rating("C", 18, 9)},
			want:   []string{"A"},
		},
		{
			name:   "all temperatures below zero",
			ranked: []LocationRating{rating("A", -2, 1), rating("B", -5, 0)},
			want:   []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range SelectFavorites(tt.ranked) {
				got = append(got, r.Location)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectFavorites_IsPrefixWalk(t *testing.T) {
	ranked := Rank(scenarioCollection())
	favorites := SelectFavorites(ranked)

	// Every favorite appears in ranked order.
	j := 0
	for _, f := range favorites {
		for j < len(ranked) && ranked[j] != f {
			j++
		}
		assert.Less(t, j, len(ranked), "favorite %s not found in order", f.Location)
	}
}
