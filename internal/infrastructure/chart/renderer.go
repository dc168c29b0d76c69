package chart

import (
	"fmt"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/logger"
)

var (
	co2Color = drawing.ColorFromHex("1E88E5")
	ch4Color = drawing.ColorFromHex("FB8C00")
)

const (
	hourLayout    = "15:04"
	dayHourLayout = "02/01 15:04"
)

// Renderer draws CO₂ on the left axis and CH₄ on the right axis as PNG.
type Renderer struct {
	width  int
	height int
	logger logger.Logger
}

func NewRenderer(width, height int, log logger.Logger) *Renderer {
	if width <= 0 {
		width = 1000
	}
	if height <= 0 {
		height = 420
	}
	return &Renderer{
		width:  width,
		height: height,
		logger: logger.Component(log, "chart_renderer"),
	}
}

func (r *Renderer) Render(w io.Writer, snapshot *entities.Snapshot) error {
	if !snapshot.HasData() {
		return entities.ErrNoData
	}

	co2 := line("CO₂ (ppm)", snapshot.Rows, func(rd entities.Reading) float64 { return rd.CO2 })
	ch4 := line("CH₄ (ppb)", snapshot.Rows, func(rd entities.Reading) float64 { return rd.CH4 })

	if co2 == nil && ch4 == nil {
		return entities.ErrNoData
	}

	rows := snapshot.Rows
	graph := gochart.Chart{
		Title:      snapshot.ChartTitle,
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: gochart.XAxis{
			Name:           "Waktu",
			ValueFormatter: timeFormatter(rows[0].Timestamp.Location(), layoutFor(rows)),
		},
	}

	// A lone gas is drawn on the primary axis; go-chart needs at least one
	// series there.
	if co2 != nil {
		co2.Style = lineStyle(co2Color)
		graph.YAxis = axis(co2, co2Color)
		graph.Series = append(graph.Series, *co2)
	}
	if ch4 != nil {
		ch4.Style = lineStyle(ch4Color)
		if co2 != nil {
			ch4.YAxis = gochart.YAxisSecondary
			graph.YAxisSecondary = axis(ch4, ch4Color)
		} else {
			graph.YAxis = axis(ch4, ch4Color)
		}
		graph.Series = append(graph.Series, *ch4)
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	r.logger.Debugf("Rendered chart %q with %d rows", snapshot.ChartTitle, len(rows))
	return nil
}

func lineStyle(c drawing.Color) gochart.Style {
	return gochart.Style{StrokeColor: c, StrokeWidth: 2, DotColor: c, DotWidth: 2}
}

// axis pins the range of a flat series, which go-chart cannot scale.
func axis(ts *gochart.TimeSeries, c drawing.Color) gochart.YAxis {
	a := gochart.YAxis{
		Name:      ts.Name,
		NameStyle: gochart.Style{FontColor: c},
		Style:     gochart.Style{FontColor: c},
	}

	lo, hi := ts.YValues[0], ts.YValues[0]
	for _, v := range ts.YValues[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi == lo {
		a.Range = &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	return a
}

// line builds one gas series, skipping missing values. A single point is
// widened to a one-minute segment since a zero-width range cannot be drawn.
func line(name string, rows entities.Series, value func(entities.Reading) float64) *gochart.TimeSeries {
	ts := &gochart.TimeSeries{Name: name}
	for _, rd := range rows {
		v := value(rd)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ts.XValues = append(ts.XValues, rd.Timestamp)
		ts.YValues = append(ts.YValues, v)
	}

	switch len(ts.XValues) {
	case 0:
		return nil
	case 1:
		ts.XValues = append(ts.XValues, ts.XValues[0].Add(time.Minute))
		ts.YValues = append(ts.YValues, ts.YValues[0])
	}
	return ts
}

func layoutFor(rows entities.Series) string {
	first, last := rows[0].Timestamp, rows[len(rows)-1].Timestamp
	if first.YearDay() != last.YearDay() || first.Year() != last.Year() {
		return dayHourLayout
	}
	return hourLayout
}

// timeFormatter labels ticks in loc; go-chart's own formatters use time.Local.
func timeFormatter(loc *time.Location, layout string) gochart.ValueFormatter {
	return func(v interface{}) string {
		switch t := v.(type) {
		case float64:
			return time.Unix(0, int64(t)).In(loc).Format(layout)
		case time.Time:
			return t.In(loc).Format(layout)
		default:
			return ""
		}
	}
}
