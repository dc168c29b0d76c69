package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/domain/ports"
	"github.com/irwan019/GrkApp/internal/logger"
	"github.com/irwan019/GrkApp/internal/metrics"
)

// ErrStaleCycle is returned when a newer view state replaced the one a
// refresh cycle was started for. Its result is discarded.
var ErrStaleCycle = errors.New("refresh cycle superseded by a newer view")

var ErrNotStarted = errors.New("dashboard is not started")

// Dashboard owns the single active view state. Every trigger (view change,
// manual refresh, timer) runs one fetch/filter/render cycle. Cycles are
// serialized; a view change cancels the timer job and any in-flight cycle.
type Dashboard struct {
	builder   *Builder
	scheduler ports.Scheduler
	publisher ports.SnapshotPublisher
	recorder  metrics.Recorder
	interval  time.Duration
	logger    logger.Logger

	cycleMu sync.Mutex

	// timerMu orders refresh job swaps. job is the scheduled job name and
	// jobGen the generation it refreshes.
	timerMu sync.Mutex
	job     string
	jobGen  uint64

	mu          sync.RWMutex
	baseCtx     context.Context
	state       entities.ViewState
	snapshot    *entities.Snapshot
	generation  uint64
	cancelCycle context.CancelFunc
}

func NewDashboard(
	builder *Builder,
	scheduler ports.Scheduler,
	publisher ports.SnapshotPublisher,
	recorder metrics.Recorder,
	interval time.Duration,
	log logger.Logger,
) *Dashboard {
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &Dashboard{
		builder:   builder,
		scheduler: scheduler,
		publisher: publisher,
		recorder:  recorder,
		interval:  interval,
		logger:    logger.Component(log, "dashboard"),
	}
}

// Start shows the realtime view of the first location. Timer jobs live
// until ctx is cancelled or Stop is called.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	d.baseCtx = ctx
	d.mu.Unlock()

	initial := entities.ViewState{
		View:     entities.ViewRealtime,
		Location: d.builder.Catalog().Default().Name,
	}
	if _, err := d.SetView(ctx, initial); err != nil {
		return fmt.Errorf("initial render: %w", err)
	}

	d.logger.Infof("Dashboard started on %s / %s, refresh every %v", initial.View, initial.Location, d.interval)
	return nil
}

func (d *Dashboard) Stop() {
	d.mu.Lock()
	d.generation++
	if d.cancelCycle != nil {
		d.cancelCycle()
		d.cancelCycle = nil
	}
	d.baseCtx = nil
	d.mu.Unlock()

	d.timerMu.Lock()
	d.cancelJobLocked()
	d.timerMu.Unlock()
	d.logger.Info("Dashboard stopped")
}

// SetView validates and activates state, then renders it. An empty location
// keeps the current one.
func (d *Dashboard) SetView(ctx context.Context, state entities.ViewState) (*entities.Snapshot, error) {
	d.mu.Lock()
	if d.baseCtx == nil {
		d.mu.Unlock()
		return nil, ErrNotStarted
	}
	if state.Location == "" {
		state.Location = d.state.Location
		if state.Location == "" {
			state.Location = d.builder.Catalog().Default().Name
		}
	}
	if state.View != entities.ViewPeriod {
		state.Start, state.End = time.Time{}, time.Time{}
	}
	if err := d.builder.Validate(state); err != nil {
		d.mu.Unlock()
		return nil, err
	}

	d.generation++
	gen := d.generation
	if d.cancelCycle != nil {
		d.cancelCycle()
		d.cancelCycle = nil
	}
	d.state = state
	baseCtx := d.baseCtx
	d.mu.Unlock()

	d.swapTimer(baseCtx, state, gen)

	d.logger.WithFields(map[string]interface{}{
		"view":     state.View,
		"location": state.Location,
	}).Info("View changed")

	return d.runCycle(ctx, gen)
}

// swapTimer replaces the refresh job with the one for state. It does nothing
// once a newer view change has taken over, so the job left scheduled always
// belongs to the latest view.
func (d *Dashboard) swapTimer(ctx context.Context, state entities.ViewState, gen uint64) {
	d.timerMu.Lock()
	defer d.timerMu.Unlock()

	if !d.isCurrent(gen) {
		return
	}
	d.cancelJobLocked()
	if !state.View.AutoRefresh() || !d.isCurrent(gen) {
		return
	}

	name := state.JobName()
	task := func(ctx context.Context) error {
		_, err := d.runCycle(ctx, gen)
		if errors.Is(err, ErrStaleCycle) {
			d.retireJob(gen)
			return nil
		}
		return err
	}
	if err := d.scheduler.Schedule(ctx, name, d.interval, task); err != nil {
		d.logger.Errorf("Failed to schedule refresh for %s: %v", state.View, err)
		return
	}
	d.job, d.jobGen = name, gen
}

// retireJob cancels the job of generation gen if it is still scheduled.
func (d *Dashboard) retireJob(gen uint64) {
	d.timerMu.Lock()
	defer d.timerMu.Unlock()

	if d.job != "" && d.jobGen == gen {
		d.logger.Debugf("Cancelling stale refresh job %s", d.job)
		d.cancelJobLocked()
	}
}

func (d *Dashboard) cancelJobLocked() {
	if d.job == "" {
		return
	}
	d.scheduler.Cancel(d.job)
	d.job, d.jobGen = "", 0
}

func (d *Dashboard) isCurrent(gen uint64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return gen == d.generation
}

// Refresh re-runs the cycle for the current view state.
func (d *Dashboard) Refresh(ctx context.Context) (*entities.Snapshot, error) {
	d.mu.RLock()
	started := d.baseCtx != nil
	gen := d.generation
	d.mu.RUnlock()

	if !started {
		return nil, ErrNotStarted
	}
	return d.runCycle(ctx, gen)
}

// Snapshot returns the last accepted render, nil before the first one.
func (d *Dashboard) Snapshot() *entities.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}

func (d *Dashboard) State() entities.ViewState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Dashboard) Builder() *Builder { return d.builder }

func (d *Dashboard) runCycle(ctx context.Context, gen uint64) (*entities.Snapshot, error) {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()

	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		return nil, ErrStaleCycle
	}
	state := d.state
	cycleCtx, cancel := context.WithCancel(ctx)
	d.cancelCycle = cancel
	d.mu.Unlock()
	defer cancel()

	started := time.Now()
	snapshot, err := d.builder.Build(cycleCtx, state)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		d.recorder.RecordStaleCycle(string(state.View))
		d.logger.Debugf("Discarding stale render of %s / %s", state.View, state.Location)
		return nil, ErrStaleCycle
	}
	d.snapshot = snapshot
	d.cancelCycle = nil
	d.mu.Unlock()

	status := ""
	if snapshot.Summary != nil {
		status = snapshot.Summary.Overall.String()
	}
	d.recorder.RecordRender(string(state.View), status, snapshot.Empty)
	d.logger.WithFields(map[string]interface{}{
		"view":     state.View,
		"location": state.Location,
		"rows":     len(snapshot.Rows),
		"status":   status,
	}).Infof("Rendered snapshot %s in %v", snapshot.ID, time.Since(started))

	if state.View.NeedsData() {
		err := d.publisher.Publish(ctx, snapshot)
		d.recorder.RecordPublish(err)
		if err != nil {
			d.logger.Warnf("Failed to publish snapshot %s: %v", snapshot.ID, err)
		}
	}

	return snapshot, nil
}

// HealthCheck reports the scheduler and publisher state.
func (d *Dashboard) HealthCheck(ctx context.Context) error {
	if err := d.scheduler.HealthCheck(ctx); err != nil {
		return fmt.Errorf("scheduler health check failed: %w", err)
	}
	if err := d.publisher.HealthCheck(ctx); err != nil {
		return fmt.Errorf("publisher health check failed: %w", err)
	}
	return nil
}
