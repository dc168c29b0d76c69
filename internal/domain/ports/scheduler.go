package ports

import (
	"context"
	"time"
)

type Task func(ctx context.Context) error

type Scheduler interface {
	Schedule(ctx context.Context, name string, interval time.Duration, task Task) error
	Cancel(name string)
	Stop()
	HealthCheck(ctx context.Context) error
}
