package export

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/domain/ports"
)

// Column headers and timestamp layout shared by every format.
const (
	ColumnTime = "Waktu"
	ColumnCO2  = "CO2_ppm"
	ColumnCH4  = "CH4_ppb"

	TimeLayout = "2006-01-02 15:04"
)

var header = []string{ColumnTime, ColumnCO2, ColumnCH4}

// Registry resolves an export format name to its Exporter.
type Registry struct {
	byFormat map[string]ports.Exporter
}

func NewRegistry(exporters ...ports.Exporter) *Registry {
	r := &Registry{byFormat: make(map[string]ports.Exporter, len(exporters))}
	for _, e := range exporters {
		r.byFormat[e.Format()] = e
	}
	return r
}

func (r *Registry) Lookup(format string) (ports.Exporter, error) {
	e, ok := r.byFormat[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entities.ErrUnknownFormat, format)
	}
	return e, nil
}

func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// formatValue writes a missing reading as an empty cell.
func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
