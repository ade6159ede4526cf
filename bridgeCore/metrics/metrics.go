// Package metrics exposes Prometheus collectors for votes, confirmations,
// consumption and order events. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pbridge"

// Metrics holds the coordinator collectors.
type Metrics struct {
	votes          *prometheus.CounterVec
	confirmed      *prometheus.CounterVec
	consumed       prometheus.Counter
	gateRejections *prometheus.CounterVec
	orders         *prometheus.CounterVec
	oraclesValid   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Oracle votes by aggregator variant and result.",
		}, []string{"variant", "result"}),
		confirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_confirmed_total",
			Help:      "Submissions that reached quorum, by kind.",
		}, []string{"kind"}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_consumed_total",
			Help:      "Submissions consumed by the gate.",
		}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_rejections_total",
			Help:      "Gate checks that failed, by reason.",
		}, []string{"reason"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Order lifecycle events.",
		}, []string{"event"}),
		oraclesValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "oracles_valid",
			Help:      "Number of currently valid oracles.",
		}),
	}
	reg.MustRegister(m.votes, m.confirmed, m.consumed, m.gateRejections, m.orders, m.oraclesValid)
	return m
}

// Reason turns an error into a bounded label value.
func Reason(err error) string {
	if err == nil {
		return "ok"
	}
	var registered *errorsmod.Error
	if errors.As(err, &registered) {
		return strings.ReplaceAll(registered.Error(), " ", "_")
	}
	return "internal"
}

func (m *Metrics) ObserveVote(variant string, err error) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(variant, Reason(err)).Inc()
}

func (m *Metrics) SubmissionConfirmed(kind string) {
	if m == nil {
		return
	}
	m.confirmed.WithLabelValues(kind).Inc()
}

func (m *Metrics) SubmissionConsumed() {
	if m == nil {
		return
	}
	m.consumed.Inc()
}

func (m *Metrics) GateRejected(err error) {
	if m == nil {
		return
	}
	m.gateRejections.WithLabelValues(Reason(err)).Inc()
}

func (m *Metrics) OrderEvent(event string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(event).Inc()
}

func (m *Metrics) SetValidOracles(n uint32) {
	if m == nil {
		return
	}
	m.oraclesValid.Set(float64(n))
}
