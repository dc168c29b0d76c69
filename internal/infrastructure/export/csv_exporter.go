package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/logger"
)

type CSVExporter struct {
	logger logger.Logger
}

func NewCSVExporter(log logger.Logger) *CSVExporter {
	return &CSVExporter{logger: logger.Component(log, "csv_exporter")}
}

func (e *CSVExporter) Format() string      { return "csv" }
func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }
func (e *CSVExporter) Extension() string   { return ".csv" }

// Export writes a header line plus one line per displayed row.
func (e *CSVExporter) Export(w io.Writer, snapshot *entities.Snapshot) error {
	if !snapshot.HasData() {
		return entities.ErrNoData
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range snapshot.Rows {
		record := []string{
			r.Timestamp.Format(TimeLayout),
			formatValue(r.CO2),
			formatValue(r.CH4),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	e.logger.Debugf("Exported %d rows as csv for %s/%s", len(snapshot.Rows), snapshot.State.View, snapshot.State.Location)
	return nil
}
