package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests      prometheus.Counter
	Settled       prometheus.Counter
	Rejections    *prometheus.CounterVec
	LayerFailures *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Requests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkredit_engine_requests_total",
			Help: "Total number of loan requests entering the pipeline",
		}),
		Settled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkredit_engine_loans_settled_total",
			Help: "Total number of loans settled",
		}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkredit_engine_rejections_total",
			Help: "Total rejections, labelled ordinary or adversarial",
		}, []string{"class"}),
		LayerFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkredit_engine_layer_failures_total",
			Help: "Pipeline failures by layer",
		}, []string{"layer"}),
	}
}

func (m *Metrics) IncrementRequests() {
	m.Requests.Inc()
}

func (m *Metrics) IncrementSettled() {
	m.Settled.Inc()
}

func (m *Metrics) IncrementRejection(class string) {
	m.Rejections.WithLabelValues(class).Inc()
}

func (m *Metrics) IncrementLayerFailure(layer string) {
	m.LayerFailures.WithLabelValues(layer).Inc()
}
