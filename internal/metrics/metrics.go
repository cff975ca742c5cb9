package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "overlay"

// Metrics implements the observer hooks of the store, the catalog client
// and the mirror worker. A nil *Metrics is valid and records nothing.
type Metrics struct {
	storeWrites *prometheus.CounterVec
	remoteCalls *prometheus.CounterVec
	mirrorTasks *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		storeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Overlay collection writes by key and result.",
		}, []string{"key", "result"}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Remote catalog calls by operation and result.",
		}, []string{"op", "result"}),
		mirrorTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_tasks_total",
			Help:      "Background mirror tasks by operation and result.",
		}, []string{"op", "result"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
	if reg != nil {
		reg.MustRegister(m.storeWrites, m.remoteCalls, m.mirrorTasks, m.requests)
	}
	return m
}

func (m *Metrics) StoreWrite(key, result string) {
	if m == nil {
		return
	}
	m.storeWrites.WithLabelValues(key, result).Inc()
}

func (m *Metrics) RemoteCall(op, result string) {
	if m == nil {
		return
	}
	m.remoteCalls.WithLabelValues(op, result).Inc()
}

func (m *Metrics) MirrorTask(op, result string) {
	if m == nil {
		return
	}
	m.mirrorTasks.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Request(route, method string, code int, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Observe(took.Seconds())
}
