// Package metrics records batch outcomes as Prometheus series so a run can be
// exported to a node_exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trinity"

// Recorder holds the collectors. A nil *Recorder records nothing.
type Recorder struct {
	ActionsTotal   *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	CommandsTotal  *prometheus.CounterVec
	LadderOutcomes *prometheus.CounterVec
	BreakerState   *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		// ActionsTotal counts finished actions by kind and outcome (succeeded/failed)
		ActionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Finished actions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ActionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Wall time of one action in seconds",
				Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 180, 600},
			},
			[]string{"kind"},
		),
		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "External command invocations by shell mode and outcome",
			},
			[]string{"shell", "outcome"},
		),
		LadderOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ladder_outcomes_total",
				Help:      "Terminal outcomes of the helper start ladder",
			},
			[]string{"label"},
		),
		// BreakerState is 0=closed, 1=half-open, 2=open
		BreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "breaker_state",
				Help:      "Package-manager circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
	}
}

func outcome(ok bool) string {
	if ok {
		return "succeeded"
	}
	return "failed"
}

func (r *Recorder) ObserveAction(kind string, ok bool, d time.Duration) {
	if r == nil {
		return
	}
	r.ActionsTotal.WithLabelValues(kind, outcome(ok)).Inc()
	r.ActionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (r *Recorder) ObserveCommand(shell string, ok bool) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(shell, outcome(ok)).Inc()
}

func (r *Recorder) ObserveLadder(label string) {
	if r == nil {
		return
	}
	r.LadderOutcomes.WithLabelValues(label).Inc()
}

func (r *Recorder) SetBreakerState(name string, state int) {
	if r == nil {
		return
	}
	r.BreakerState.WithLabelValues(name).Set(float64(state))
}

// WriteTextfile writes every series gathered by g to path in the text
// exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
