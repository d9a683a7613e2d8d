package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AttacksRecorded   *prometheus.CounterVec
	ActorsBlacklisted prometheus.Counter
	SlashingExecuted  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		AttacksRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkredit_watchdog_attacks_recorded_total",
			Help: "Total number of attack records, labelled by attack kind",
		}, []string{"kind"}),
		ActorsBlacklisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkredit_watchdog_actors_blacklisted_total",
			Help: "Total number of automatic and manual blacklist activations",
		}),
		SlashingExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkredit_watchdog_slashing_executed_total",
			Help: "Total number of slashing events recorded",
		}),
	}
}

func (m *Metrics) IncrementAttacks(kind string) {
	m.AttacksRecorded.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementBlacklisted() {
	m.ActorsBlacklisted.Inc()
}

func (m *Metrics) IncrementSlashing() {
	m.SlashingExecuted.Inc()
}
