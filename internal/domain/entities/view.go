package entities

import (
	"fmt"
	"time"
)

type View string

const (
	ViewRealtime View = "realtime"
	ViewForecast View = "forecast"
	ViewPeriod   View = "period"
	ViewAbout    View = "about"
)

// DefaultPeriodMaxDays bounds how far back the period view may start.
const DefaultPeriodMaxDays = 7

func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewRealtime, ViewForecast, ViewPeriod, ViewAbout:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
}

// AutoRefresh reports whether the view re-fetches on the refresh timer.
// The period view only refreshes when asked to.
func (v View) AutoRefresh() bool {
	return v == ViewRealtime || v == ViewForecast
}

func (v View) NeedsData() bool { return v != ViewAbout }

func (v View) Heading() string {
	switch v {
	case ViewRealtime:
		return "Dashboard Realtime (Hari ini)"
	case ViewForecast:
		return "Proyeksi Beberapa Jam Kedepan CO₂ & CH₄"
	case ViewPeriod:
		return "Data Periode CO₂ & CH₄"
	default:
		return "About"
	}
}

func (v View) ChartTitle() string {
	switch v {
	case ViewRealtime:
		return "CO₂ & CH₄ Hari Ini"
	case ViewForecast:
		return "Forecast CO₂ & CH₄"
	default:
		return "CO₂ & CH₄"
	}
}

func (v View) ExportLabel() string {
	switch v {
	case ViewRealtime:
		return "Simpan CSV Realtime"
	case ViewForecast:
		return "Simpan CSV Forecast"
	case ViewPeriod:
		return "Simpan CSV Periode"
	default:
		return ""
	}
}

// ViewState is everything a render depends on besides the fetched data and the clock.
type ViewState struct {
	View     View      `json:"view"`
	Location string    `json:"location"`
	Start    time.Time `json:"start_date,omitempty"`
	End      time.Time `json:"end_date,omitempty"`
}

// JobName keys the refresh task of this view in the scheduler.
func (s ViewState) JobName() string {
	return "refresh:" + string(s.View)
}

// Validate checks the state against the clock. Period dates must lie within
// the last maxDays days (inclusive of today) and start must not follow end.
func (s ViewState) Validate(now time.Time, loc *time.Location, maxDays int) error {
	if _, err := ParseView(string(s.View)); err != nil {
		return ValidationError{Field: "view", Reason: err.Error()}
	}
	if !s.View.NeedsData() {
		return nil
	}
	if s.Location == "" {
		return ValidationError{Field: "location", Reason: "must not be empty"}
	}
	if s.View != ViewPeriod {
		return nil
	}

	if s.Start.IsZero() || s.End.IsZero() {
		return ValidationError{Field: "period", Reason: "start and end dates are required"}
	}
	if maxDays <= 0 {
		maxDays = DefaultPeriodMaxDays
	}

	today := dateOf(now, loc)
	earliest := today.AddDate(0, 0, -maxDays)
	start, end := dateOf(s.Start, loc), dateOf(s.End, loc)

	if start.After(end) {
		return ValidationError{Field: "period", Reason: "start date is after end date"}
	}
	if start.Before(earliest) || end.After(today) {
		return ValidationError{
			Field:  "period",
			Reason: fmt.Sprintf("dates must be between %s and %s", earliest.Format(DateLayout), today.Format(DateLayout)),
		}
	}
	return nil
}

// Predicate is the row filter of the view at instant now.
func (s ViewState) Predicate(now time.Time, loc *time.Location) Predicate {
	switch s.View {
	case ViewRealtime:
		return SameDay(now, loc)
	case ViewForecast:
		return After(now)
	case ViewPeriod:
		return DateRange(s.Start, s.End, loc)
	default:
		return func(Reading) bool { return false }
	}
}

const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", s)}
	}
	return t, nil
}
