// Command validate checks a forecast fixture directory and a persisted
// artifact against each other. It verifies that every fixture decodes, that
// the artifact holds exactly what reducing the fixtures produces, and that the
// ranking derived from the artifact is well formed.
//
// Fixture files are named by location key, while the artifact is keyed by
// location name. The key-to-name mapping comes from the same LOCATIONS_FILE
// or LOCATIONS settings the ranker reads, optionally loaded from -env-file.
// A fixture whose key is not configured is matched by its file stem.
//
// Usage:
//
//	go run ./cmd/validate -forecast-dir data/mock -artifact data_file.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/forecast-ranker/internal/config"
	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	forecastDir := flag.String("forecast-dir", "", "directory containing {key}.json forecast fixtures")
	artifact := flag.String("artifact", "", "path to the persisted artifact")
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading the location settings")
	flag.Parse()

	if *forecastDir == "" || *artifact == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	locations, err := config.LoadLocations()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(*forecastDir, *artifact, locationNames(locations)); code != 0 {
		os.Exit(code)
	}
}

func run(forecastDir, artifactPath string, names map[string]string) int {
	fmt.Println("=== Forecast Ranker Validation ===")
	fmt.Println()

	fixtures, err := loadFixtures(forecastDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixtures: %v\n", err)
		return 1
	}

	data, err := os.ReadFile(artifactPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read artifact: %v\n", err)
		return 1
	}
	var collection domain.ReducedCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode artifact: %v\n", err)
		return 1
	}

	decoded, schema := validateFixtures(fixtures, names)
	phases := []*phase{
		schema,
		validateArtifact(collection, decoded),
		validateRanking(collection),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Locations: %d fixtures, %d in artifact\n", len(fixtures), len(collection))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadFixtures reads every *.json file in dir keyed by file stem.
func loadFixtures(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fixtures := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		fixtures[strings.TrimSuffix(e.Name(), ".json")] = data
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixtures in %s: %w", dir, fs.ErrNotExist)
	}
	return fixtures, nil
}

// locationNames maps each configured location key to its name.
func locationNames(locations []domain.Location) map[string]string {
	names := make(map[string]string, len(locations))
	for _, l := range locations {
		names[l.Key] = l.Name
	}
	return names
}

// ── Phase 1: Fixture Schema ──
// Decoded documents are keyed by location name.

func validateFixtures(fixtures map[string][]byte, names map[string]string) (map[string]domain.RawForecastDocument, *phase) {
	p := &phase{name: "Phase 1: Fixture Schema"}
	decoded := make(map[string]domain.RawForecastDocument, len(fixtures))

	for _, key := range sortedKeys(fixtures) {
		name, ok := names[key]
		if !ok {
			name = key
		}
		if _, dup := decoded[name]; dup {
			p.errorf("%s: more than one fixture for location %s", key, name)
			continue
		}
		doc, err := domain.DecodeForecast(name, fixtures[key])
		if err != nil {
			var schemaErr *domain.SchemaError
			if errors.As(err, &schemaErr) && schemaErr.Field != "" {
				p.errorf("%s: field %s: %v", key, schemaErr.Field, schemaErr.Err)
			} else {
				p.errorf("%s: %v", key, err)
			}
			continue
		}
		decoded[name] = doc
	}
	return decoded, p
}

// ── Phase 2: Artifact Integrity ──
// Re-reduces each fixture and compares it with the stored statistics.

func validateArtifact(collection domain.ReducedCollection, decoded map[string]domain.RawForecastDocument) *phase {
	p := &phase{name: "Phase 2: Artifact Integrity"}

	seen := make(map[string]bool, len(collection))
	for _, entry := range collection {
		if seen[entry.Location] {
			p.errorf("%s: appears more than once", entry.Location)
			continue
		}
		seen[entry.Location] = true

		doc, ok := decoded[entry.Location]
		if !ok {
			p.errorf("%s: no valid fixture for stored location", entry.Location)
			continue
		}
		want, err := domain.Reduce(entry.Location, doc)
		if err != nil {
			p.errorf("%s: reduce fixture: %v", entry.Location, err)
			continue
		}
		if diff := cmp.Diff(want.Dates(), entry.Stats.Dates()); diff != "" {
			p.errorf("%s: day order mismatch (-fixture +artifact):\n%s", entry.Location, diff)
		}
		want.Each(func(date string, stat domain.DailyStat) {
			got, ok := entry.Stats.Get(date)
			if !ok {
				return
			}
			if diff := cmp.Diff(stat, got); diff != "" {
				p.errorf("%s %s: stats mismatch (-fixture +artifact):\n%s", entry.Location, date, diff)
			}
		})
	}

	for _, key := range sortedKeys(decoded) {
		if !seen[key] {
			p.errorf("%s: fixture decodes but is missing from the artifact", key)
		}
	}
	return p
}

// ── Phase 3: Ranking ──
// Favorites must follow ranking order and start with the top location.

func validateRanking(collection domain.ReducedCollection) *phase {
	p := &phase{name: "Phase 3: Ranking"}

	ranked := domain.Rank(collection)
	for _, entry := range collection {
		if entry.Stats.Len() == 0 {
			fmt.Printf("  note: %s has no days and is not ranked\n", entry.Location)
		}
	}

	favorites := domain.SelectFavorites(ranked)
	if len(ranked) > 0 && (len(favorites) == 0 || favorites[0] != ranked[0]) {
		p.errorf("top ranked location %s is not the first favorite", ranked[0].Location)
	}

	next := 0
	for _, f := range favorites {
		for next < len(ranked) && ranked[next] != f {
			next++
		}
		if next == len(ranked) {
			p.errorf("favorite %s is out of ranking order", f.Location)
			break
		}
		next++
	}
	return p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
