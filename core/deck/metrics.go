package deck

import "github.com/prometheus/client_golang/prometheus"

var (
	deckRotations prometheus.Counter
	deckSaves     prometheus.Counter
)

func newCollectors() (prometheus.Counter, prometheus.Counter) {
	rot := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deck_rotations_total",
		Help: "Number of deck rotations performed",
	})
	sav := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deck_saves_total",
		Help: "Number of deck role-map saves persisted",
	})
	return rot, sav
}

func init() {
	deckRotations, deckSaves = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers deck metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(deckRotations, deckSaves)
}

// ResetMetrics reinitializes collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	deckRotations, deckSaves = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
