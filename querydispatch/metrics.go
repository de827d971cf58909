package querydispatch

import "github.com/prometheus/client_golang/prometheus"

// metrics backs the Executor's prometheus.Collector implementation.
// Counts are partitioned by query/retrieve level; in_progress is a
// gauge since it rises and falls as queries start and finish.
type metrics struct {
	executed   *prometheus.CounterVec
	succeeded  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	timedOut   *prometheus.CounterVec
	inProgress *prometheus.GaugeVec
}

func newMetrics() *metrics {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pacs",
			Subsystem: "querydispatch",
			Name:      name,
			Help:      help,
		}, []string{"level"})
	}
	return &metrics{
		executed:  counter("queries_executed_total", "Query requests submitted to the parallel query executor."),
		succeeded: counter("queries_succeeded_total", "Query requests that returned matches without error."),
		failed:    counter("queries_failed_total", "Query requests that returned an error."),
		timedOut:  counter("queries_timed_out_total", "Query requests that exceeded their per-query timeout."),
		inProgress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pacs",
			Subsystem: "querydispatch",
			Name:      "queries_in_progress",
			Help:      "Query requests currently executing.",
		}, []string{"level"}),
	}
}

// Describe implements prometheus.Collector.
func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	m.executed.Describe(ch)
	m.succeeded.Describe(ch)
	m.failed.Describe(ch)
	m.timedOut.Describe(ch)
	m.inProgress.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	m.executed.Collect(ch)
	m.succeeded.Collect(ch)
	m.failed.Collect(ch)
	m.timedOut.Collect(ch)
	m.inProgress.Collect(ch)
}
