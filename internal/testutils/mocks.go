package testutils

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/domain/ports"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, latitude, longitude float64) entities.Series {
	args := m.Called(ctx, latitude, longitude)
	if args.Get(0) == nil {
		return entities.Series{}
	}
	return args.Get(0).(entities.Series)
}

func (m *MockFetcher) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockScheduler records scheduled tasks so tests can fire them by name.
type MockScheduler struct {
	mock.Mock

	mu    sync.Mutex
	tasks map[string]ports.Task
	ctxs  map[string]context.Context
}

func (m *MockScheduler) Schedule(ctx context.Context, name string, interval time.Duration, task ports.Task) error {
	args := m.Called(ctx, name, interval, mock.Anything)
	if err := args.Error(0); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasks == nil {
		m.tasks = make(map[string]ports.Task)
		m.ctxs = make(map[string]context.Context)
	}
	m.tasks[name] = task
	m.ctxs[name] = ctx
	return nil
}

func (m *MockScheduler) Cancel(name string) {
	m.Called(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, name)
	delete(m.ctxs, name)
}

func (m *MockScheduler) Stop() {
	m.Called()
}

func (m *MockScheduler) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Fire runs the named task once. ok is false when no such job is scheduled.
func (m *MockScheduler) Fire(name string) (bool, error) {
	m.mu.Lock()
	task, ok := m.tasks[name]
	ctx := m.ctxs[name]
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, task(ctx)
}

func (m *MockScheduler) Scheduled(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[name]
	return ok
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, snapshot *entities.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockPublisher) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockExportSink struct {
	mock.Mock
}

func (m *MockExportSink) Save(ctx context.Context, dest string, data io.Reader, size int64, contentType string) (string, error) {
	body, _ := io.ReadAll(data)
	args := m.Called(ctx, dest, body, size, contentType)
	return args.String(0), args.Error(1)
}

type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) SetView(ctx context.Context, state entities.ViewState) (*entities.Snapshot, error) {
	args := m.Called(ctx, state)
	snapshot, _ := args.Get(0).(*entities.Snapshot)
	return snapshot, args.Error(1)
}

func (m *MockDashboard) Refresh(ctx context.Context) (*entities.Snapshot, error) {
	args := m.Called(ctx)
	snapshot, _ := args.Get(0).(*entities.Snapshot)
	return snapshot, args.Error(1)
}

func (m *MockDashboard) Snapshot() *entities.Snapshot {
	args := m.Called()
	snapshot, _ := args.Get(0).(*entities.Snapshot)
	return snapshot
}

func (m *MockDashboard) State() entities.ViewState {
	args := m.Called()
	return args.Get(0).(entities.ViewState)
}

// HourlySeries returns n hourly readings starting at start with slowly
// rising values.
func HourlySeries(start time.Time, n int) entities.Series {
	s := make(entities.Series, 0, n)
	for i := 0; i < n; i++ {
		s = append(s, entities.Reading{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			CO2:       420 + float64(i%10),
			CH4:       1900 + float64(i%10),
		})
	}
	return s
}
