package incident

import "github.com/prometheus/client_golang/prometheus"

var (
	incidentsCreated *prometheus.CounterVec
	notifyFailures   prometheus.Counter
)

func newCollectors() (*prometheus.CounterVec, prometheus.Counter) {
	created := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incidents_created_total",
			Help: "Number of incidents created and dispatched",
		},
		[]string{"severity"},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "incident_notify_failures_total",
			Help: "Number of failed responder notifications",
		},
	)
	return created, fail
}

func init() {
	incidentsCreated, notifyFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers incident metrics on the provided
// registry. If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(incidentsCreated, notifyFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes
// and registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	incidentsCreated, notifyFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
