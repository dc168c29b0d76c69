package entities

import "time"

const (
	NoDataMessage    = "Tidak ada data tersedia."
	NoSummaryMessage = "Tidak ada data KPI."
)

// Snapshot is the outcome of one render. It is never mutated after being published.
type Snapshot struct {
	ID          string    `json:"id"`
	State       ViewState `json:"state"`
	Heading     string    `json:"heading"`
	ChartTitle  string    `json:"chart_title"`
	ExportLabel string    `json:"export_label,omitempty"`
	Rows        Series    `json:"rows"`
	Summary     *Summary  `json:"summary,omitempty"`
	Empty       bool      `json:"empty"`
	Message     string    `json:"message,omitempty"`
	RenderedAt  time.Time `json:"rendered_at"`
}

func (s *Snapshot) HasData() bool {
	return s != nil && !s.Empty && len(s.Rows) > 0
}
