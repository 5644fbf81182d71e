package domain

import (
	"math"
	"sort"
	"time"
)

// LocationRating is a location's mean daytime temperature and mean dry hours
// across all of its forecast days.
type LocationRating struct {
	Location                     string  `json:"location"`
	AvgMidTemp                   float64 `json:"avg_mid_temp"`
	AvgHoursWithoutPrecipitation float64 `json:"avg_hours_without_precipitation"`
}

// Rate averages an entry's days. It returns false for an entry without days.
func Rate(entry LocationEntry) (LocationRating, bool) {
	n := entry.Stats.Len()
	if n == 0 {
		return LocationRating{}, false
	}
	var temp, hours float64
	entry.Stats.Each(func(_ string, stat DailyStat) {
		temp += stat.MidTemp
		hours += float64(stat.HoursWithoutPrecipitation)
	})
	return LocationRating{
		Location:                     entry.Location,
		AvgMidTemp:                   round1(temp / float64(n)),
		AvgHoursWithoutPrecipitation: round1(hours / float64(n)),
	}, true
}

// Rank rates every location and sorts descending by temperature, then by dry
// hours. Equal ratings keep collection order. Locations without days are
// left out.
func Rank(collection ReducedCollection) []LocationRating {
	ratings := make([]LocationRating, 0, len(collection))
	for _, entry := range collection {
		if r, ok := Rate(entry); ok {
			ratings = append(ratings, r)
		}
	}
	sort.SliceStable(ratings, func(i, j int) bool {
		a, b := ratings[i], ratings[j]
		if a.AvgMidTemp != b.AvgMidTemp {
			return a.AvgMidTemp > b.AvgMidTemp
		}
		return a.AvgHoursWithoutPrecipitation > b.AvgHoursWithoutPrecipitation
	})
	return ratings
}

// SelectFavorites walks a ranked list and keeps each temperature tier leader
// plus any entry with more dry hours than the running best. The walk stops at
// the first entry that is colder than the running best temperature and has no
// more dry hours than the running best.
func SelectFavorites(ranked []LocationRating) []LocationRating {
	var favorites []LocationRating
	maxTemp, maxHours := math.Inf(-1), math.Inf(-1)
	for _, r := range ranked {
		switch {
		case r.AvgMidTemp > maxTemp:
			favorites = append(favorites, r)
			maxTemp = r.AvgMidTemp
			maxHours = r.AvgHoursWithoutPrecipitation
		case r.AvgHoursWithoutPrecipitation > maxHours:
			favorites = append(favorites, r)
			maxHours = r.AvgHoursWithoutPrecipitation
		case r.AvgMidTemp == maxTemp:
			// Same tier, not better on dry hours.
		default:
			return favorites
		}
	}
	return favorites
}

// Ranking is the outcome of ranking one reduced collection.
type Ranking struct {
	RunID       string           `json:"run_id"`
	CompletedAt time.Time        `json:"completed_at"`
	Ranked      []LocationRating `json:"ranked"`
	Favorites   []LocationRating `json:"favorites"`
}
