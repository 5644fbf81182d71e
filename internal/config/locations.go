package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

type locationsFile struct {
	Locations []domain.Location `yaml:"locations"`
}

// LoadLocations resolves the location set: LOCATIONS_FILE, then LOCATIONS,
// then the built-in cities.
func LoadLocations() ([]domain.Location, error) {
	var locs []domain.Location
	switch {
	case os.Getenv("LOCATIONS_FILE") != "":
		var err error
		locs, err = loadLocationsFile(os.Getenv("LOCATIONS_FILE"))
		if err != nil {
			return nil, err
		}
	case os.Getenv("LOCATIONS") != "":
		locs = parseLocationList(os.Getenv("LOCATIONS"))
	default:
		locs = domain.DefaultLocations()
	}

	locs, err := domain.ValidateLocations(locs)
	if err != nil {
		return nil, fmt.Errorf("invalid locations: %w", err)
	}
	return locs, nil
}

func loadLocationsFile(path string) ([]domain.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}
	var f locationsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse locations file: %w", err)
	}
	return f.Locations, nil
}

// parseLocationList parses "NAME" and "NAME=key" items separated by commas.
func parseLocationList(s string) []domain.Location {
	var locs []domain.Location
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, key, _ := strings.Cut(item, "=")
		locs = append(locs, domain.Location{
			Name: strings.TrimSpace(name),
			Key:  strings.TrimSpace(key),
		})
	}
	return locs
}
