package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// Each instance owns its registry so several applications can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	EventsIngested  *prometheus.CounterVec
	EventsPersisted prometheus.Counter
	PersistRuns     *prometheus.CounterVec
	Purges          prometheus.Counter
	StoreEvents     prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pageflow_events_ingested_total",
			Help: "Total number of events appended to the store",
		}, []string{"transport"}),
		EventsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pageflow_events_persisted_total",
			Help: "Total number of events written to the durable snapshot",
		}),
		PersistRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pageflow_persist_runs_total",
			Help: "Durable snapshot runs by outcome",
		}, []string{"result"}),
		Purges: factory.NewCounter(prometheus.CounterOpts{
			Name: "pageflow_purges_total",
			Help: "Total number of confirmed purges",
		}),
		StoreEvents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pageflow_store_events",
			Help: "Current number of events held in memory",
		}),
	}
}

// IncrementIngested counts one event accepted over transport ("pixel" or "beacon").
func (m *Metrics) IncrementIngested(transport string) {
	m.EventsIngested.WithLabelValues(transport).Inc()
}

// ObservePersist records the outcome of one durable snapshot run.
func (m *Metrics) ObservePersist(written int, err error) {
	if err != nil {
		m.PersistRuns.WithLabelValues("error").Inc()
		return
	}
	m.PersistRuns.WithLabelValues("ok").Inc()
	m.EventsPersisted.Add(float64(written))
}

func (m *Metrics) IncrementPurges() {
	m.Purges.Inc()
}

func (m *Metrics) SetStoreEvents(count int) {
	m.StoreEvents.Set(float64(count))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
