package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/irwan019/GrkApp/internal/domain/ports"
	"github.com/irwan019/GrkApp/internal/logger"
)

// minInterval is the resolution of cron.Every.
const minInterval = time.Second

type job struct {
	entryID cron.EntryID
	cancel  context.CancelFunc
}

// CronScheduler runs named periodic tasks. Each job owns a context that is
// cancelled when the job is removed, so a running task stops with it.
type CronScheduler struct {
	cron    *cron.Cron
	jobs    map[string]*job
	mu      sync.RWMutex
	timeout time.Duration
	logger  logger.Logger
}

func NewCronScheduler(timeout time.Duration, log logger.Logger) *CronScheduler {
	l := logger.Component(log, "cron_scheduler")
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{l}),
		cron.SkipIfStillRunning(cronLogger{l}),
	))

	scheduler := &CronScheduler{
		cron:    c,
		jobs:    make(map[string]*job),
		timeout: timeout,
		logger:  l,
	}

	c.Start()
	scheduler.logger.Info("Cron scheduler started")

	return scheduler
}

func (c *CronScheduler) Schedule(ctx context.Context, name string, interval time.Duration, task ports.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.jobs[name]; exists {
		return fmt.Errorf("job with name '%s' already exists", name)
	}
	if interval < minInterval {
		interval = minInterval
	}

	jobCtx, cancel := context.WithCancel(ctx)
	entryID := c.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		c.runTask(jobCtx, name, task)
	}))

	c.jobs[name] = &job{entryID: entryID, cancel: cancel}
	c.logger.Infof("Job '%s' scheduled every %v with entry ID: %d", name, interval, entryID)
	return nil
}

func (c *CronScheduler) runTask(ctx context.Context, name string, task ports.Task) {
	if ctx.Err() != nil {
		return
	}

	startTime := time.Now()
	c.logger.Debugf("Starting scheduled job: %s", name)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := task(ctx); err != nil {
		c.logger.Errorf("Job '%s' failed after %v: %v", name, time.Since(startTime), err)
		return
	}

	c.logger.Debugf("Job '%s' completed in %v", name, time.Since(startTime))
}

// Cancel removes the job and cancels its context. Unknown names are ignored.
func (c *CronScheduler) Cancel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[name]
	if !ok {
		return
	}
	c.cron.Remove(j.entryID)
	j.cancel()
	delete(c.jobs, name)
	c.logger.Infof("Job '%s' cancelled", name)
}

// Jobs lists the registered job names.
func (c *CronScheduler) Jobs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.jobs))
	for name := range c.jobs {
		names = append(names, name)
	}
	return names
}

func (c *CronScheduler) Stop() {
	c.logger.Info("Stopping cron scheduler...")
	c.mu.Lock()
	for _, j := range c.jobs {
		j.cancel()
	}
	c.jobs = make(map[string]*job)
	c.mu.Unlock()

	ctx := c.cron.Stop()
	<-ctx.Done()

	c.logger.Info("Cron scheduler stopped")
}

func (c *CronScheduler) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, j := range c.jobs {
		if entry := c.cron.Entry(j.entryID); entry.ID != j.entryID {
			return fmt.Errorf("job '%s' not found in cron", name)
		}
	}

	return nil
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	logger logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Errorf("%s: %v", msg, err)
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	f := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
