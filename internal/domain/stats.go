package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DailyStat is the daytime summary of one forecast day.
type DailyStat struct {
	MidTemp                   float64 `json:"mid_temp"`
	HoursWithoutPrecipitation int     `json:"hours_without_precipitation"`
	// EmptyWindow is set when the day had no daytime samples and MidTemp is
	// the divisor-floor zero rather than a measurement.
	EmptyWindow bool `json:"empty_window,omitempty"`
}

// LocationStats maps "dd-mm" dates to daily stats, preserving insertion order.
// The zero value is ready to use.
type LocationStats struct {
	dates []string
	days  map[string]DailyStat
}

// Set stores stat under date. An existing date keeps its position.
func (s *LocationStats) Set(date string, stat DailyStat) {
	if s.days == nil {
		s.days = make(map[string]DailyStat)
	}
	if _, ok := s.days[date]; !ok {
		s.dates = append(s.dates, date)
	}
	s.days[date] = stat
}

// Get returns the stat for date.
func (s LocationStats) Get(date string) (DailyStat, bool) {
	stat, ok := s.days[date]
	return stat, ok
}

// Dates returns the dates in insertion order.
func (s LocationStats) Dates() []string {
	out := make([]string, len(s.dates))
	copy(out, s.dates)
	return out
}

// Len returns the number of days.
func (s LocationStats) Len() int { return len(s.dates) }

// Each calls fn for every day in insertion order.
func (s LocationStats) Each(fn func(date string, stat DailyStat)) {
	for _, d := range s.dates {
		fn(d, s.days[d])
	}
}

func (s LocationStats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range s.dates {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.days[d])
		if err != nil {
			return nil, fmt.Errorf("marshal day %s: %w", d, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *LocationStats) UnmarshalJSON(data []byte) error {
	*s = LocationStats{}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		date, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected date key, got %v", tok)
		}
		var stat DailyStat
		if err := dec.Decode(&stat); err != nil {
			return fmt.Errorf("decode day %s: %w", date, err)
		}
		s.Set(date, stat)
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// LocationEntry is one location's reduced stats. It serializes as a
// single-entry object keyed by location name.
type LocationEntry struct {
	Location string
	Stats    LocationStats
}

func (e LocationEntry) MarshalJSON() ([]byte, error) {
	key, err := json.Marshal(e.Location)
	if err != nil {
		return nil, err
	}
	val, err := json.Marshal(e.Stats)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.Location, err)
	}
	out := make([]byte, 0, len(key)+len(val)+3)
	out = append(out, '{')
	out = append(out, key...)
	out = append(out, ':')
	out = append(out, val...)
	out = append(out, '}')
	return out, nil
}

func (e *LocationEntry) UnmarshalJSON(data []byte) error {
	var m map[string]LocationStats
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return errors.New("location entry must have exactly one key")
	}
	for name, stats := range m {
		e.Location = name
		e.Stats = stats
	}
	return nil
}

// ReducedCollection holds the reduced stats of every location in a run, in
// the order reductions completed.
type ReducedCollection []LocationEntry

// Lookup returns the stats for a location name.
func (c ReducedCollection) Lookup(name string) (LocationStats, bool) {
	for _, e := range c {
		if e.Location == name {
			return e.Stats, true
		}
	}
	return LocationStats{}, false
}
