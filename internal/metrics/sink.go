package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink is the business-metrics capability injected into services.
// Counters and durations are addressed by name plus free-form labels,
// the registry wiring stays behind this interface.
type Sink interface {
	Inc(name string, labels map[string]string, delta float64)
	Observe(name string, labels map[string]string, d time.Duration)
}

type promSink struct {
	namespace string
	reg       prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheus returns a Sink backed by reg. Vectors are created
// lazily on first use of a metric name; a name must always be used
// with the same label keys.
func NewPrometheus(namespace string, reg prometheus.Registerer) Sink {
	return &promSink{
		namespace:  namespace,
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (s *promSink) Inc(name string, labels map[string]string, delta float64) {
	s.counterVec(name, labelKeys(labels)).With(labels).Add(delta)
}

func (s *promSink) Observe(name string, labels map[string]string, d time.Duration) {
	s.histogramVec(name, labelKeys(labels)).With(labels).Observe(d.Seconds())
}

func (s *promSink) counterVec(name string, keys []string) *prometheus.CounterVec {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vec, ok := s.counters[name]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: s.namespace,
		Name:      name,
	}, keys)
	s.reg.MustRegister(vec)
	s.counters[name] = vec
	return vec
}

func (s *promSink) histogramVec(name string, keys []string) *prometheus.HistogramVec {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vec, ok := s.histograms[name]; ok {
		return vec
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: s.namespace,
		Name:      name,
		Buckets:   prometheus.DefBuckets,
	}, keys)
	s.reg.MustRegister(vec)
	s.histograms[name] = vec
	return vec
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
