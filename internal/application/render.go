package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/domain/ports"
)

// Render builds the snapshot shown for state, given the fetched series and
// the current instant. Rows are converted to loc. The snapshot ID is left
// for the caller to assign.
func Render(state entities.ViewState, series entities.Series, now time.Time, loc *time.Location) *entities.Snapshot {
	s := &entities.Snapshot{
		State:       state,
		Heading:     state.View.Heading(),
		ChartTitle:  state.View.ChartTitle(),
		ExportLabel: state.View.ExportLabel(),
		RenderedAt:  now.In(loc),
	}

	if !state.View.NeedsData() {
		s.Empty = true
		s.Rows = entities.Series{}
		return s
	}

	rows := series.Filter(state.Predicate(now, loc))
	for i := range rows {
		rows[i].Timestamp = rows[i].Timestamp.In(loc)
	}
	s.Rows = rows

	summary, ok := entities.Summarize(rows)
	if !ok {
		s.Empty = true
		s.Message = entities.NoDataMessage
		return s
	}
	s.Summary = &summary
	return s
}

// Builder validates a view state and turns it into a snapshot: one fetch,
// one filter, one render.
type Builder struct {
	fetcher ports.Fetcher
	catalog *entities.Catalog
	zone    *time.Location
	maxDays int
	now     func() time.Time
	newID   func() string
}

func NewBuilder(fetcher ports.Fetcher, catalog *entities.Catalog, zone *time.Location, periodMaxDays int) *Builder {
	if zone == nil {
		zone = time.UTC
	}
	return &Builder{
		fetcher: fetcher,
		catalog: catalog,
		zone:    zone,
		maxDays: periodMaxDays,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

func (b *Builder) Zone() *time.Location { return b.zone }

func (b *Builder) Catalog() *entities.Catalog { return b.catalog }

func (b *Builder) Now() time.Time { return b.now().In(b.zone) }

func (b *Builder) Validate(state entities.ViewState) error {
	if err := state.Validate(b.Now(), b.zone, b.maxDays); err != nil {
		return err
	}
	if !state.View.NeedsData() {
		return nil
	}
	if _, err := b.catalog.Lookup(state.Location); err != nil {
		return entities.ValidationError{Field: "location", Reason: err.Error()}
	}
	return nil
}

func (b *Builder) Build(ctx context.Context, state entities.ViewState) (*entities.Snapshot, error) {
	var series entities.Series
	if state.View.NeedsData() {
		loc, err := b.catalog.Lookup(state.Location)
		if err != nil {
			return nil, fmt.Errorf("build snapshot: %w", err)
		}
		series = b.fetcher.Fetch(ctx, loc.Latitude, loc.Longitude)
	}

	s := Render(state, series, b.Now(), b.zone)
	s.ID = b.newID()
	return s, nil
}
