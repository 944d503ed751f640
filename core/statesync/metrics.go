package statesync

import "github.com/prometheus/client_golang/prometheus"

var (
	snapshotsTaken prometheus.Counter
	staleDiscards  prometheus.Counter
	peerAdoptions  prometheus.Counter
)

func newCollectors() (prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	taken := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_snapshots_total",
		Help: "Number of session snapshots persisted",
	})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_stale_snapshots_discarded_total",
		Help: "Number of snapshots discarded as stale on restore",
	})
	adopted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_peer_adoptions_total",
		Help: "Number of peer snapshots adopted",
	})
	return taken, stale, adopted
}

func init() {
	snapshotsTaken, staleDiscards, peerAdoptions = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers sync metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(snapshotsTaken, staleDiscards, peerAdoptions)
}

// ResetMetrics reinitializes metrics collectors for testing purposes
// and registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	snapshotsTaken, staleDiscards, peerAdoptions = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
