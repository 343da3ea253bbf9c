package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder exposes metric events via prometheus collectors.
type PrometheusRecorder struct {
	redirects        *prometheus.CounterVec
	redirectDuration prometheus.Histogram
	linksCreated     prometheus.Counter
	linksDeleted     prometheus.Counter
	clicksRecorded   *prometheus.CounterVec
	fanoutDuration   prometheus.Histogram
}

// NewPrometheus returns a Recorder registered against the given
// registerer (pass prometheus.DefaultRegisterer in production).
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zonlink_redirects_total",
			Help: "Redirects served, partitioned by device class.",
		}, []string{"device"}),
		redirectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "zonlink_redirect_duration_seconds",
			Help:    "Time spent resolving a slug to a destination.",
			Buckets: prometheus.DefBuckets,
		}),
		linksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "zonlink_links_created_total",
			Help: "Links created.",
		}),
		linksDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "zonlink_links_deleted_total",
			Help: "Links deleted.",
		}),
		clicksRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zonlink_clicks_recorded_total",
			Help: "Click ingest outcomes, partitioned by status.",
		}, []string{"status"}),
		fanoutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "zonlink_click_fanout_duration_seconds",
			Help:    "Time spent executing the click fan-out batch.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncRedirect counts a served redirect.
func (p *PrometheusRecorder) IncRedirect(device string) {
	p.redirects.WithLabelValues(device).Inc()
}

// ObserveRedirectDuration records slug resolution latency.
func (p *PrometheusRecorder) ObserveRedirectDuration(duration time.Duration) {
	p.redirectDuration.Observe(duration.Seconds())
}

// IncLinkCreated counts a created link.
func (p *PrometheusRecorder) IncLinkCreated() {
	p.linksCreated.Inc()
}

// IncLinkDeleted counts a deleted link.
func (p *PrometheusRecorder) IncLinkDeleted() {
	p.linksDeleted.Inc()
}

// IncClickRecorded counts a click ingest outcome.
func (p *PrometheusRecorder) IncClickRecorded(status string) {
	p.clicksRecorded.WithLabelValues(status).Inc()
}

// ObserveFanoutDuration records fan-out batch latency.
func (p *PrometheusRecorder) ObserveFanoutDuration(duration time.Duration) {
	p.fanoutDuration.Observe(duration.Seconds())
}
