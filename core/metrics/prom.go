package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromSink records coordination events in Prometheus metrics.
type PromSink struct {
	dispatches *prometheus.CounterVec
	acks       *prometheus.CounterVec
	ackLatency *prometheus.HistogramVec
	delivery   *prometheus.CounterVec
}

// NewPromSink registers coordination metrics on the provided registerer.
// If reg is nil, the default registerer is used. Already registered
// collectors are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incident_team_dispatches_total",
		Help: "Teams bound to created incidents",
	}, []string{"team", "severity"})
	acks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incident_team_acks_total",
		Help: "Team acknowledgments recorded",
	}, []string{"team"})
	ackLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "incident_ack_latency_seconds",
		Help:    "Time between incident dispatch and team acknowledgment",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"team"})
	delivery := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_deliveries_total",
		Help: "Notification delivery outcomes",
	}, []string{"outcome"})

	for _, c := range []prometheus.Collector{dispatches, acks, ackLatency, delivery} {
		if err := reg.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch exist := are.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					switch c {
					case dispatches:
						dispatches = exist
					case acks:
						acks = exist
					case delivery:
						delivery = exist
					}
				case *prometheus.HistogramVec:
					ackLatency = exist
				}
				continue
			}
			return nil, err
		}
	}
	return &PromSink{dispatches: dispatches, acks: acks, ackLatency: ackLatency, delivery: delivery}, nil
}

// RecordDispatch increments the dispatch counter per team.
func (s *PromSink) RecordDispatch(records []DispatchRecord) error {
	for _, r := range records {
		s.dispatches.WithLabelValues(r.TeamName, r.Severity).Inc()
	}
	return nil
}

// RecordAck records one acknowledgment and its latency.
func (s *PromSink) RecordAck(rec AckRecord) error {
	s.acks.WithLabelValues(rec.TeamName).Inc()
	if rec.Latency > 0 {
		s.ackLatency.WithLabelValues(rec.TeamName).Observe(rec.Latency.Seconds())
	}
	return nil
}

// RecordDelivery counts notification outcomes.
func (s *PromSink) RecordDelivery(rec DeliveryRecord) error {
	s.delivery.WithLabelValues("success").Add(float64(rec.Success))
	s.delivery.WithLabelValues("failure").Add(float64(rec.Failure))
	return nil
}

// StartPromServer exposes /metrics on the given port and blocks.
func StartPromServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
