package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/logger"
)

const (
	DataSheet    = "Data"
	SummarySheet = "Ringkasan"
)

type ExcelExporter struct {
	logger logger.Logger
}

func NewExcelExporter(log logger.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger.Component(log, "excel_exporter")}
}

func (e *ExcelExporter) Format() string { return "xlsx" }

func (e *ExcelExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *ExcelExporter) Extension() string { return ".xlsx" }

// Export writes the rows to sheet "Data" and, when the snapshot carries a
// summary, the averages and statuses to sheet "Ringkasan".
func (e *ExcelExporter) Export(w io.Writer, snapshot *entities.Snapshot) error {
	if !snapshot.HasData() {
		return entities.ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Title:   snapshot.ChartTitle,
		Subject: fmt.Sprintf("%s - %s", snapshot.Heading, snapshot.State.Location),
		Creator: "GrkApp",
		Created: snapshot.RenderedAt.Format("2006-01-02T15:04:05Z07:00"),
	})

	if err := e.createDataSheet(f, snapshot.Rows); err != nil {
		return fmt.Errorf("failed to create data sheet: %w", err)
	}

	if snapshot.Summary != nil {
		if err := e.createSummarySheet(f, snapshot); err != nil {
			return fmt.Errorf("failed to create summary sheet: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}

	e.logger.Debugf("Exported %d rows as xlsx for %s/%s", len(snapshot.Rows), snapshot.State.View, snapshot.State.Location)
	return nil
}

func (e *ExcelExporter) createDataSheet(f *excelize.File, rows entities.Series) error {
	if err := f.SetSheetName(f.GetSheetName(0), DataSheet); err != nil {
		return err
	}

	if err := f.SetSheetRow(DataSheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range rows {
		row := []interface{}{r.Timestamp.Format(TimeLayout), cellValue(r.CO2), cellValue(r.CH4)}
		if err := f.SetSheetRow(DataSheet, cell(1, i+2), &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(DataSheet, "A", "A", 18); err != nil {
		return err
	}
	return f.SetColWidth(DataSheet, "B", "C", 12)
}

func (e *ExcelExporter) createSummarySheet(f *excelize.File, snapshot *entities.Snapshot) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}

	s := snapshot.Summary
	rows := [][]interface{}{
		{"Lokasi", snapshot.State.Location},
		{"Tampilan", snapshot.Heading},
		{"Jumlah data", len(snapshot.Rows)},
		{"Rata-rata CO₂ (ppm)", cellValue(s.CO2Average)},
		{"Status CO₂", s.CO2Status.String()},
		{"Rata-rata CH₄ (ppb)", cellValue(s.CH4Average)},
		{"Status CH₄", s.CH4Status.String()},
		{"Status", s.Overall.String()},
	}

	for i := range rows {
		if err := f.SetSheetRow(SummarySheet, cell(1, i+1), &rows[i]); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.Color()[1:]}},
	})
	if err != nil {
		return err
	}
	last := cell(2, len(rows))
	if err := f.SetCellStyle(SummarySheet, last, last, style); err != nil {
		return err
	}

	return f.SetColWidth(SummarySheet, "A", "A", 22)
}

// cellValue leaves missing readings blank.
func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
