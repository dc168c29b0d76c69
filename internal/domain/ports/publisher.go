package ports

import (
	"context"

	"github.com/irwan019/GrkApp/internal/domain/entities"
)

type SnapshotPublisher interface {
	Publish(ctx context.Context, snapshot *entities.Snapshot) error
	HealthCheck(ctx context.Context) error
	Close() error
}
