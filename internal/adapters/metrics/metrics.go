// Package metrics exposes Prometheus counters for rotations, archives and
// notifications. A nil *Metrics is valid and records nothing, so services
// can call it unconditionally.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gzlog"

// Result label values.
const (
	ResultOK         = "ok"
	ResultFailed     = "failed"
	ResultCleanup    = "cleanup_failed"
	ResultSent       = "sent"
	ResultSuppressed = "suppressed"
	ResultDisabled   = "disabled"
)

type Metrics struct {
	rotations     *prometheus.CounterVec
	archives      *prometheus.CounterVec
	pruned        prometheus.Counter
	notifications *prometheus.CounterVec
}

// New creates the counters and registers them with reg. Registering twice on
// the same registry reuses the already registered collectors.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations_total",
			Help:      "Rotations of active log segments by segment and result.",
		}, []string{"segment", "result"}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Archival attempts of rotated segments by result.",
		}, []string{"result"}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_pruned_total",
			Help:      "Archives removed by retention.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Error notifications by result.",
		}, []string{"result"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	m.rotations, err = register(reg, m.rotations)
	if err != nil {
		return nil, err
	}
	m.archives, err = register(reg, m.archives)
	if err != nil {
		return nil, err
	}
	m.pruned, err = register(reg, m.pruned)
	if err != nil {
		return nil, err
	}
	m.notifications, err = register(reg, m.notifications)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) Rotation(segment, result string) {
	if m == nil {
		return
	}
	m.rotations.WithLabelValues(segment, result).Inc()
}

func (m *Metrics) Archive(result string) {
	if m == nil {
		return
	}
	m.archives.WithLabelValues(result).Inc()
}

func (m *Metrics) Pruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pruned.Add(float64(n))
}

func (m *Metrics) Notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}
