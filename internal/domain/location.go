package domain

import (
	"context"
	"errors"
	"fmt"
)

// Location is a named place and the key used to query its forecast source.
type Location struct {
	Name string `json:"name" yaml:"name"`
	Key  string `json:"key" yaml:"key"`
}

// ForecastSource retrieves the raw forecast document for a location key.
type ForecastSource interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// defaultCities is the location set used when none is configured.
var defaultCities = []string{
	"MOSCOW", "PARIS", "LONDON", "BERLIN", "BEIJING",
	"KAZAN", "SPETERSBURG", "VOLGOGRAD", "NOVOSIBIRSK", "KALININGRAD",
	"ABUDHABI", "WARSZAWA", "BUCHAREST", "ROMA", "CAIRO",
}

// DefaultLocations returns the built-in city set, each keyed by its own name.
func DefaultLocations() []Location {
	locs := make([]Location, len(defaultCities))
	for i, name := range defaultCities {
		locs[i] = Location{Name: name, Key: name}
	}
	return locs
}

// ValidateLocations rejects empty names and duplicate names. A missing key
// defaults to the name.
func ValidateLocations(locs []Location) ([]Location, error) {
	if len(locs) == 0 {
		return nil, errors.New("no locations configured")
	}
	seen := make(map[string]struct{}, len(locs))
	out := make([]Location, 0, len(locs))
	for _, loc := range locs {
		if loc.Name == "" {
			return nil, errors.New("location name is required")
		}
		if _, dup := seen[loc.Name]; dup {
			return nil, fmt.Errorf("duplicate location %q", loc.Name)
		}
		seen[loc.Name] = struct{}{}
		if loc.Key == "" {
			loc.Key = loc.Name
		}
		out = append(out, loc)
	}
	return out, nil
}
