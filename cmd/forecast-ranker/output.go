package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

func printFavorites(w io.Writer, favorites []domain.LocationRating) {
	if len(favorites) == 0 {
		fmt.Fprintln(w, "no favorites: no location has daytime statistics")
		return
	}
	for _, f := range favorites {
		fmt.Fprintf(w, "favorite: %s (avg temp %.1f, avg dry hours %.1f)\n",
			f.Location, f.AvgMidTemp, f.AvgHoursWithoutPrecipitation)
	}
}

func printRanking(w io.Writer, ranked []domain.LocationRating) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tLOCATION\tAVG TEMP\tAVG DRY HOURS")
	for i, r := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\n", i+1, r.Location, r.AvgMidTemp, r.AvgHoursWithoutPrecipitation)
	}
	tw.Flush() //nolint:errcheck // terminal output
}
