package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes. Anything but FetchOK ends with an empty series.
const (
	FetchOK        = "ok"
	FetchTransport = "transport"
	FetchStatus    = "status"
	FetchDecode    = "decode"
	FetchMalformed = "malformed"
)

type Recorder interface {
	RecordFetch(location, outcome string, duration time.Duration, readings int)
	RecordRender(view, status string, empty bool)
	RecordStaleCycle(view string)
	RecordExport(format string, err error)
	RecordPublish(err error)
	Handler() http.Handler
}

// PrometheusRecorder keeps its own registry so tests and multiple
// instances do not collide on the default one.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	fetchDuration *prometheus.HistogramVec
	fetchTotal    *prometheus.CounterVec
	fetchReadings *prometheus.GaugeVec

	renderTotal *prometheus.CounterVec
	staleTotal  *prometheus.CounterVec

	exportTotal  *prometheus.CounterVec
	publishTotal *prometheus.CounterVec
}

func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grkapp_fetch_duration_seconds",
			Help:    "Duration of upstream air-quality requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"location"}),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grkapp_fetch_total",
			Help: "Upstream requests by location and outcome.",
		}, []string{"location", "outcome"}),
		fetchReadings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "grkapp_fetch_readings",
			Help: "Readings returned by the last fetch per location.",
		}, []string{"location"}),
		renderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grkapp_render_total",
			Help: "Accepted renders by view and combined status.",
		}, []string{"view", "status"}),
		staleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grkapp_refresh_stale_total",
			Help: "Refresh cycles discarded because the view changed meanwhile.",
		}, []string{"view"}),
		exportTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grkapp_export_total",
			Help: "Exports by format and result.",
		}, []string{"format", "result"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grkapp_snapshot_publish_total",
			Help: "Snapshot events published by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		r.fetchDuration,
		r.fetchTotal,
		r.fetchReadings,
		r.renderTotal,
		r.staleTotal,
		r.exportTotal,
		r.publishTotal,
	)

	return r
}

func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) RecordFetch(location, outcome string, duration time.Duration, readings int) {
	r.fetchDuration.WithLabelValues(location).Observe(duration.Seconds())
	r.fetchTotal.WithLabelValues(location, outcome).Inc()
	r.fetchReadings.WithLabelValues(location).Set(float64(readings))
}

// RecordRender counts an empty render under status "empty".
func (r *PrometheusRecorder) RecordRender(view, status string, empty bool) {
	if empty {
		status = "empty"
	}
	r.renderTotal.WithLabelValues(view, status).Inc()
}

func (r *PrometheusRecorder) RecordStaleCycle(view string) {
	r.staleTotal.WithLabelValues(view).Inc()
}

func (r *PrometheusRecorder) RecordExport(format string, err error) {
	r.exportTotal.WithLabelValues(format, result(err)).Inc()
}

func (r *PrometheusRecorder) RecordPublish(err error) {
	r.publishTotal.WithLabelValues(result(err)).Inc()
}

func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

type nopRecorder struct{}

// Nop discards everything. Handler serves 404.
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) RecordFetch(string, string, time.Duration, int) {}
func (nopRecorder) RecordRender(string, string, bool)              {}
func (nopRecorder) RecordStaleCycle(string)                        {}
func (nopRecorder) RecordExport(string, error)                     {}
func (nopRecorder) RecordPublish(error)                            {}
func (nopRecorder) Handler() http.Handler                          { return http.NotFoundHandler() }
