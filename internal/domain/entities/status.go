package entities

import (
	"encoding/json"
	"fmt"
	"math"
)

// Status is ordered by severity: Normal < Waspada < Tinggi.
type Status int

const (
	StatusNormal Status = iota + 1
	StatusWaspada
	StatusTinggi
)

// Outdoor thresholds used for classification. The About text advertises
// 1000/1500 ppm for CO₂; these are the values the classifier applies.
const (
	CO2CautionPPM = 450.0
	CO2HighPPM    = 500.0
	CH4CautionPPB = 1950.0
	CH4HighPPB    = 2000.0
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "Normal"
	case StatusWaspada:
		return "Waspada"
	case StatusTinggi:
		return "Tinggi"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Color is the hex colour the dashboard paints the status in.
func (s Status) Color() string {
	switch s {
	case StatusWaspada:
		return "#FFA726"
	case StatusTinggi:
		return "#E53935"
	default:
		return "#43A047"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, candidate := range []Status{StatusNormal, StatusWaspada, StatusTinggi} {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", name)
}

// ClassifyCO2 buckets an averaged CO₂ value; both bounds of the caution band are inclusive.
func ClassifyCO2(ppm float64) Status {
	return classify(ppm, CO2CautionPPM, CO2HighPPM)
}

// ClassifyCH4 buckets an averaged CH₄ value; both bounds of the caution band are inclusive.
func ClassifyCH4(ppb float64) Status {
	return classify(ppb, CH4CautionPPB, CH4HighPPB)
}

// A NaN average (every value missing) classifies as Normal.
func classify(v, caution, high float64) Status {
	switch {
	case math.IsNaN(v), v < caution:
		return StatusNormal
	case v <= high:
		return StatusWaspada
	default:
		return StatusTinggi
	}
}

// Combine returns the more severe of the two statuses.
func Combine(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// Summary is the KPI line shown under the chart.
type Summary struct {
	CO2Average float64 `json:"co2_avg"`
	CH4Average float64 `json:"ch4_avg"`
	CO2Status  Status  `json:"co2_status"`
	CH4Status  Status  `json:"ch4_status"`
	Overall    Status  `json:"status"`
}

func Classify(co2Avg, ch4Avg float64) Summary {
	co2 := ClassifyCO2(co2Avg)
	ch4 := ClassifyCH4(ch4Avg)
	return Summary{
		CO2Average: co2Avg,
		CH4Average: ch4Avg,
		CO2Status:  co2,
		CH4Status:  ch4,
		Overall:    Combine(co2, ch4),
	}
}

// Summarize averages s and classifies the result. ok is false for an empty series.
func Summarize(s Series) (Summary, bool) {
	co2, ch4, ok := s.Averages()
	if !ok {
		return Summary{}, false
	}
	return Classify(co2, ch4), true
}

func (s Summary) Color() string { return s.Overall.Color() }

func (s Summary) String() string {
	return fmt.Sprintf("CO₂ Avg: %.1f ppm | CH₄ Avg: %.1f ppb | Status: %s",
		s.CO2Average, s.CH4Average, s.Overall)
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CO2Average *float64 `json:"co2_avg"`
		CH4Average *float64 `json:"ch4_avg"`
		CO2Status  Status   `json:"co2_status"`
		CH4Status  Status   `json:"ch4_status"`
		Overall    Status   `json:"status"`
		Color      string   `json:"color"`
	}{
		CO2Average: nullable(s.CO2Average),
		CH4Average: nullable(s.CH4Average),
		CO2Status:  s.CO2Status,
		CH4Status:  s.CH4Status,
		Overall:    s.Overall,
		Color:      s.Color(),
	})
}
