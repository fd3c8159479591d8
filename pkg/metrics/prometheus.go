package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	formEvents  *prometheus.CounterVec
	submissions *prometheus.CounterVec
	predictions *prometheus.CounterVec
	upstream    *prometheus.HistogramVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	wsClients   prometheus.Gauge
}

// New registers the recorder on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		formEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdesk_form_events_total",
				Help: "Form session edits by event and result",
			},
			[]string{"event", "result"},
		),
		submissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdesk_agent_submissions_total",
				Help: "Agent creation requests by prediction scale and result",
			},
			[]string{"scale", "result"},
		),
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdesk_predictions_total",
				Help: "Prediction requests by result",
			},
			[]string{"result"},
		),
		upstream: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentdesk_upstream_request_seconds",
				Help:    "Latency of calls to the agent backend",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentdesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		wsClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "agentdesk_realtime_clients",
			Help: "Connected agent status subscribers",
		}),
	}
}

func (r *Recorder) RecordFormEvent(event, result string) {
	r.formEvents.WithLabelValues(event, result).Inc()
}

func (r *Recorder) RecordSubmission(scale, result string) {
	r.submissions.WithLabelValues(scale, result).Inc()
}

func (r *Recorder) RecordPrediction(result string) {
	r.predictions.WithLabelValues(result).Inc()
}

// RecordUpstream has the signature of http.Observer so it can be handed to the
// backend client directly. status 0 means the request never got a response.
func (r *Recorder) RecordUpstream(method, path string, status int, took time.Duration) {
	r.upstream.WithLabelValues(method, path, strconv.Itoa(status)).Observe(took.Seconds())
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) SetRealtimeClients(n int) {
	r.wsClients.Set(float64(n))
}
