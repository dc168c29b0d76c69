package entities

import (
	"encoding/json"
	"math"
	"time"
)

// Reading is one hourly CO₂/CH₄ pair. A value the upstream reported as null
// is NaN.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	CO2       float64   `json:"co2_ppm"`
	CH4       float64   `json:"ch4_ppb"`
}

type readingJSON struct {
	Timestamp time.Time `json:"timestamp"`
	CO2       *float64  `json:"co2_ppm"`
	CH4       *float64  `json:"ch4_ppb"`
}

// MarshalJSON writes missing values as null; encoding/json rejects NaN.
func (r Reading) MarshalJSON() ([]byte, error) {
	return json.Marshal(readingJSON{
		Timestamp: r.Timestamp,
		CO2:       nullable(r.CO2),
		CH4:       nullable(r.CH4),
	})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Series keeps upstream order; nothing here re-sorts it.
type Series []Reading

// Predicate selects the readings a view displays.
type Predicate func(Reading) bool

func (s Series) Len() int { return len(s) }

func (s Series) IsEmpty() bool { return len(s) == 0 }

// Filter returns a new Series holding the readings p accepts, in order.
// A nil predicate keeps everything.
func (s Series) Filter(p Predicate) Series {
	out := make(Series, 0, len(s))
	for _, r := range s {
		if p == nil || p(r) {
			out = append(out, r)
		}
	}
	return out
}

// Averages returns the mean CO₂ and CH₄, skipping NaN values per gas.
// ok is false when the series is empty.
func (s Series) Averages() (co2, ch4 float64, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	return mean(s, func(r Reading) float64 { return r.CO2 }),
		mean(s, func(r Reading) float64 { return r.CH4 }),
		true
}

func mean(s Series, value func(Reading) float64) float64 {
	var sum float64
	var n int
	for _, r := range s {
		v := value(r)
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// SameDay keeps readings whose calendar date in loc equals day's date in loc.
func SameDay(day time.Time, loc *time.Location) Predicate {
	y, m, d := day.In(loc).Date()
	return func(r Reading) bool {
		ry, rm, rd := r.Timestamp.In(loc).Date()
		return ry == y && rm == m && rd == d
	}
}

// After keeps readings strictly later than t.
func After(t time.Time) Predicate {
	return func(r Reading) bool {
		return r.Timestamp.After(t)
	}
}

// DateRange keeps readings whose calendar date in loc lies in [start, end].
// Only the date part of start and end is used.
func DateRange(start, end time.Time, loc *time.Location) Predicate {
	from := dateOf(start, loc)
	to := dateOf(end, loc)
	return func(r Reading) bool {
		d := dateOf(r.Timestamp, loc)
		return !d.Before(from) && !d.After(to)
	}
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
