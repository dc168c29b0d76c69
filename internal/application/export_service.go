package application

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/domain/ports"
	"github.com/irwan019/GrkApp/internal/logger"
	"github.com/irwan019/GrkApp/internal/metrics"
)

type ExporterLookup interface {
	Lookup(format string) (ports.Exporter, error)
}

// Export is one encoded snapshot, ready to be downloaded or stored.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	exporters ExporterLookup
	sink      ports.ExportSink
	recorder  metrics.Recorder
	logger    logger.Logger
}

func NewExportService(exporters ExporterLookup, sink ports.ExportSink, recorder metrics.Recorder, log logger.Logger) *ExportService {
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &ExportService{
		exporters: exporters,
		sink:      sink,
		recorder:  recorder,
		logger:    logger.Component(log, "export_service"),
	}
}

// Encode writes the rows of snapshot in format. An empty format means csv.
func (s *ExportService) Encode(snapshot *entities.Snapshot, format string) (*Export, error) {
	if format == "" {
		format = "csv"
	}

	exporter, err := s.exporters.Lookup(format)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = exporter.Export(&buf, snapshot)
	s.recorder.RecordExport(exporter.Format(), err)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", exporter.Format(), err)
	}

	return &Export{
		FileName:    FileName(snapshot, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Save encodes snapshot and hands it to the sink. Without an explicit format
// the destination's extension decides.
func (s *ExportService) Save(ctx context.Context, snapshot *entities.Snapshot, format, dest string) (string, error) {
	if format == "" {
		format = FormatFromPath(dest)
	}

	export, err := s.Encode(snapshot, format)
	if err != nil {
		return "", err
	}

	location, err := s.sink.Save(ctx, dest, bytes.NewReader(export.Data), int64(len(export.Data)), export.ContentType)
	if err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}

	s.logger.Infof("Saved %d rows of %s / %s to %s", len(snapshot.Rows), snapshot.State.View, snapshot.State.Location, location)
	return location, nil
}

func FormatFromPath(path string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext == "xlsx" {
		return ext
	}
	return "csv"
}

// FileName suggests a download name, e.g. grk_realtime_jakarta-pusat_20261019-1004.csv.
func FileName(snapshot *entities.Snapshot, ext string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(snapshot.State.Location), "-"))
	if slug == "" {
		slug = "all"
	}
	return fmt.Sprintf("grk_%s_%s_%s%s",
		snapshot.State.View, slug, snapshot.RenderedAt.Format("20060102-1504"), ext)
}
