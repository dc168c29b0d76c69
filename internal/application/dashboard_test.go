package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/logger"
	"github.com/irwan019/GrkApp/internal/testutils"
)

type dashboardFixture struct {
	dashboard *Dashboard
	fetcher   *testutils.MockFetcher
	scheduler *testutils.MockScheduler
	publisher *testutils.MockPublisher
}

func newDashboardFixture(t *testing.T) *dashboardFixture {
	t.Helper()

	f := &dashboardFixture{
		fetcher:   new(testutils.MockFetcher),
		scheduler: new(testutils.MockScheduler),
		publisher: new(testutils.MockPublisher),
	}
	f.scheduler.On("Cancel", mock.Anything).Maybe()
	f.scheduler.On("Schedule", mock.Anything, mock.Anything, 10*time.Minute, mock.Anything).Return(nil).Maybe()
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.dashboard = NewDashboard(newTestBuilder(t, f.fetcher), f.scheduler, f.publisher, nil, 10*time.Minute, logger.Nop())
	return f
}

func TestDashboard_Start(t *testing.T) {
	f := newDashboardFixture(t)
	f.fetcher.On("Fetch", mock.Anything, -6.1862, 106.8347).Return(weekOfData())

	require.NoError(t, f.dashboard.Start(context.Background()))

	s := f.dashboard.Snapshot()
	require.NotNil(t, s)
	assert.Equal(t, entities.ViewRealtime, s.State.View)
	assert.Equal(t, "Jakarta Pusat", s.State.Location)
	assert.Len(t, s.Rows, 24)

	assert.True(t, f.scheduler.Scheduled("refresh:realtime"))
	f.publisher.AssertCalled(t, "Publish", mock.Anything, s)
}

func TestDashboard_RefreshBeforeStart(t *testing.T) {
	f := newDashboardFixture(t)

	_, err := f.dashboard.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = f.dashboard.SetView(context.Background(), entities.ViewState{View: entities.ViewForecast})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestDashboard_SetView(t *testing.T) {
	t.Run("timer follows the view", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
		require.NoError(t, f.dashboard.Start(context.Background()))

		s, err := f.dashboard.SetView(context.Background(), entities.ViewState{View: entities.ViewForecast})
		require.NoError(t, err)
		assert.Len(t, s.Rows, 37)
		assert.Equal(t, "Jakarta Pusat", s.State.Location)

		f.scheduler.AssertCalled(t, "Cancel", "refresh:realtime")
		assert.False(t, f.scheduler.Scheduled("refresh:realtime"))
		assert.True(t, f.scheduler.Scheduled("refresh:forecast"))
	})

	t.Run("period and about have no timer", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
		require.NoError(t, f.dashboard.Start(context.Background()))

		today := time.Date(2026, 10, 19, 0, 0, 0, 0, wib)
		s, err := f.dashboard.SetView(context.Background(), entities.ViewState{
			View: entities.ViewPeriod, Location: "Jakarta Barat", Start: today.AddDate(0, 0, -2), End: today,
		})
		require.NoError(t, err)
		assert.Len(t, s.Rows, 72)
		assert.False(t, f.scheduler.Scheduled("refresh:realtime"))
		assert.False(t, f.scheduler.Scheduled("refresh:period"))

		calls := len(f.fetcher.Calls)
		s, err = f.dashboard.SetView(context.Background(), entities.ViewState{View: entities.ViewAbout})
		require.NoError(t, err)
		assert.Equal(t, "About", s.Heading)
		assert.Len(t, f.fetcher.Calls, calls)
		assert.False(t, f.scheduler.Scheduled("refresh:about"))
	})

	t.Run("invalid state leaves the view unchanged", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
		require.NoError(t, f.dashboard.Start(context.Background()))
		before := f.dashboard.Snapshot()

		_, err := f.dashboard.SetView(context.Background(), entities.ViewState{
			View:     entities.ViewPeriod,
			Location: "Jakarta Barat",
			Start:    time.Date(2026, 10, 19, 0, 0, 0, 0, wib),
			End:      time.Date(2026, 10, 18, 0, 0, 0, 0, wib),
		})
		require.Error(t, err)
		assert.True(t, entities.IsValidationError(err))

		assert.Equal(t, entities.ViewRealtime, f.dashboard.State().View)
		assert.Same(t, before, f.dashboard.Snapshot())
		assert.True(t, f.scheduler.Scheduled("refresh:realtime"))
	})

	t.Run("dates are dropped outside the period view", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
		require.NoError(t, f.dashboard.Start(context.Background()))

		s, err := f.dashboard.SetView(context.Background(), entities.ViewState{
			View:  entities.ViewForecast,
			Start: time.Date(2026, 1, 1, 0, 0, 0, 0, wib),
		})
		require.NoError(t, err)
		assert.True(t, s.State.Start.IsZero())
	})
}

func TestDashboard_TimerRefresh(t *testing.T) {
	f := newDashboardFixture(t)
	f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(entities.Series{}).Once()
	f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
	require.NoError(t, f.dashboard.Start(context.Background()))

	first := f.dashboard.Snapshot()
	assert.True(t, first.Empty)
	assert.Equal(t, entities.NoDataMessage, first.Message)

	ok, err := f.scheduler.Fire("refresh:realtime")
	require.True(t, ok)
	require.NoError(t, err)

	second := f.dashboard.Snapshot()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, second.Rows, 24)
}

func TestDashboard_OverlappingViewChangesKeepOneTimer(t *testing.T) {
	fetcher := new(testutils.MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
	publisher := new(testutils.MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	scheduler := new(testutils.MockScheduler)
	scheduler.On("Cancel", "refresh:realtime").Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Once()
	scheduler.On("Cancel", mock.Anything).Maybe()
	scheduler.On("Schedule", mock.Anything, mock.Anything, time.Minute, mock.Anything).Return(nil)

	d := NewDashboard(newTestBuilder(t, fetcher), scheduler, publisher, nil, time.Minute, logger.Nop())
	require.NoError(t, d.Start(context.Background()))

	first := make(chan error, 1)
	go func() {
		_, err := d.SetView(context.Background(), entities.ViewState{View: entities.ViewForecast})
		first <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first view change never reached the timer swap")
	}

	second := make(chan error, 1)
	go func() {
		_, err := d.SetView(context.Background(), entities.ViewState{View: entities.ViewRealtime, Location: "Jakarta Barat"})
		second <- err
	}()

	require.Eventually(t, func() bool {
		return d.State().Location == "Jakarta Barat"
	}, 2*time.Second, 5*time.Millisecond)
	close(release)

	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second view change did not return")
	}
	select {
	case err := <-first:
		assert.ErrorIs(t, err, ErrStaleCycle)
	case <-time.After(2 * time.Second):
		t.Fatal("first view change did not return")
	}

	assert.Equal(t, entities.ViewRealtime, d.State().View)
	assert.True(t, scheduler.Scheduled("refresh:realtime"))
	assert.False(t, scheduler.Scheduled("refresh:forecast"))
}

func TestDashboard_StaleJobCancelsItself(t *testing.T) {
	f := newDashboardFixture(t)
	f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
	require.NoError(t, f.dashboard.Start(context.Background()))

	f.dashboard.mu.Lock()
	f.dashboard.generation++
	f.dashboard.mu.Unlock()

	ok, err := f.scheduler.Fire("refresh:realtime")
	require.True(t, ok)
	require.NoError(t, err)

	f.scheduler.AssertCalled(t, "Cancel", "refresh:realtime")
	assert.False(t, f.scheduler.Scheduled("refresh:realtime"))
}

func TestDashboard_Refresh(t *testing.T) {
	f := newDashboardFixture(t)
	f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
	require.NoError(t, f.dashboard.Start(context.Background()))

	s, err := f.dashboard.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, s, f.dashboard.Snapshot())
	f.fetcher.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestDashboard_ViewChangeCancelsInFlightCycle(t *testing.T) {
	f := newDashboardFixture(t)
	f.fetcher.On("Fetch", mock.Anything, -6.1862, 106.8347).Return(weekOfData()).Once()
	require.NoError(t, f.dashboard.Start(context.Background()))

	started := make(chan struct{})
	f.fetcher.On("Fetch", mock.Anything, -6.1189, 106.9156).Run(func(args mock.Arguments) {
		close(started)
		<-args.Get(0).(context.Context).Done()
	}).Return(entities.Series{}).Once()
	f.fetcher.On("Fetch", mock.Anything, -5.7980, 106.5070).Return(weekOfData()).Once()

	slow := make(chan error, 1)
	go func() {
		_, err := f.dashboard.SetView(context.Background(), entities.ViewState{View: entities.ViewRealtime, Location: "Jakarta Utara"})
		slow <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch never started")
	}

	s, err := f.dashboard.SetView(context.Background(), entities.ViewState{View: entities.ViewForecast, Location: "Pulau Seribu"})
	require.NoError(t, err)

	select {
	case err := <-slow:
		assert.ErrorIs(t, err, ErrStaleCycle)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded cycle did not return")
	}

	assert.Same(t, s, f.dashboard.Snapshot())
	assert.Equal(t, "Pulau Seribu", f.dashboard.Snapshot().State.Location)
	assert.Equal(t, entities.ViewForecast, f.dashboard.State().View)
	f.fetcher.AssertExpectations(t)
}

func TestDashboard_StaleGenerationIsDiscarded(t *testing.T) {
	f := newDashboardFixture(t)
	f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
	require.NoError(t, f.dashboard.Start(context.Background()))

	_, err := f.dashboard.runCycle(context.Background(), f.dashboard.generation-1)
	assert.ErrorIs(t, err, ErrStaleCycle)
}

func TestDashboard_PublishFailureIsNotFatal(t *testing.T) {
	fetcher := new(testutils.MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
	scheduler := new(testutils.MockScheduler)
	scheduler.On("Cancel", mock.Anything).Maybe()
	scheduler.On("Schedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	publisher := new(testutils.MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	d := NewDashboard(newTestBuilder(t, fetcher), scheduler, publisher, nil, time.Minute, logger.Nop())
	require.NoError(t, d.Start(context.Background()))
	assert.NotNil(t, d.Snapshot())
}

func TestDashboard_Stop(t *testing.T) {
	f := newDashboardFixture(t)
	f.fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(weekOfData())
	require.NoError(t, f.dashboard.Start(context.Background()))

	f.dashboard.Stop()

	assert.False(t, f.scheduler.Scheduled("refresh:realtime"))
	_, err := f.dashboard.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestDashboard_HealthCheck(t *testing.T) {
	f := newDashboardFixture(t)
	f.scheduler.On("HealthCheck", mock.Anything).Return(nil)
	f.publisher.On("HealthCheck", mock.Anything).Return(errors.New("no brokers"))

	err := f.dashboard.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publisher health check failed")
}
