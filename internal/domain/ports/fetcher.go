package ports

import (
	"context"

	"github.com/irwan019/GrkApp/internal/domain/entities"
)

// Fetcher never fails a fetch: any upstream problem yields an empty Series.
type Fetcher interface {
	Fetch(ctx context.Context, latitude, longitude float64) entities.Series
	HealthCheck(ctx context.Context) error
}
