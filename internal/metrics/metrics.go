// Package metrics exposes Prometheus counters for the store, the autosave
// controller and form validation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/servicelog/internal/store"
)

// Recorder implements store.Listener, autosave.Observer and
// form.ValidationObserver on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	storeEvents        *prometheus.CounterVec
	records            prometheus.Gauge
	drafts             prometheus.Gauge
	formSnapshots      prometheus.Counter
	autosaveCycles     *prometheus.CounterVec
	validationFailures prometheus.Counter
	failedFields       prometheus.Counter
}

// NewRecorder builds a recorder with the Go runtime collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		storeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicelog_store_events_total",
			Help: "Store mutations by kind.",
		}, []string{"kind"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "servicelog_records",
			Help: "Committed service logs currently held.",
		}),
		drafts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "servicelog_drafts",
			Help: "Drafts currently held.",
		}),
		formSnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servicelog_form_snapshots_total",
			Help: "Debounced writes of the pending form snapshot.",
		}),
		autosaveCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicelog_autosave_cycles_total",
			Help: "Draft autosave cycles by phase.",
		}, []string{"phase"}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servicelog_validation_failures_total",
			Help: "Submissions rejected by validation.",
		}),
		failedFields: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servicelog_validation_failed_fields_total",
			Help: "Fields reported across rejected submissions.",
		}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.storeEvents,
		r.records,
		r.drafts,
		r.formSnapshots,
		r.autosaveCycles,
		r.validationFailures,
		r.failedFields,
	)
	return r
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) HandleEvent(e store.Event) {
	r.storeEvents.WithLabelValues(string(e.Kind)).Inc()
	r.records.Set(float64(e.Logs))
	r.drafts.Set(float64(e.Drafts))
}

func (r *Recorder) FormSnapshotPersisted() {
	r.formSnapshots.Inc()
}

func (r *Recorder) DraftSaveStarted(string) {
	r.autosaveCycles.WithLabelValues("started").Inc()
}

func (r *Recorder) DraftSaveCompleted(string) {
	r.autosaveCycles.WithLabelValues("completed").Inc()
}

func (r *Recorder) ValidationFailed(fields int) {
	r.validationFailures.Inc()
	r.failedFields.Add(float64(fields))
}
