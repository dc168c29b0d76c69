package ports

import (
	"context"
	"io"

	"github.com/irwan019/GrkApp/internal/domain/entities"
)

type Exporter interface {
	Format() string
	ContentType() string
	Extension() string
	Export(w io.Writer, snapshot *entities.Snapshot) error
}

// ExportSink stores an export and returns where it ended up.
type ExportSink interface {
	Save(ctx context.Context, dest string, data io.Reader, size int64, contentType string) (string, error)
}

type ChartRenderer interface {
	Render(w io.Writer, snapshot *entities.Snapshot) error
}
