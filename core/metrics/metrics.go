// Package metrics defines the observability sinks fed by the
// coordination core. Sinks are capability based: optional recorders are
// discovered via type assertion, so a sink only implements what it can
// store.
package metrics

import "time"

// DispatchRecord represents one team bound to a freshly created
// incident.
type DispatchRecord struct {
	IncidentID string
	Code       string
	Severity   string
	TeamName   string
	Members    int
	Time       time.Time
}

// Sink records incident dispatch results for observability purposes.
type Sink interface {
	RecordDispatch(records []DispatchRecord) error
}

// AckRecord captures one team acknowledgment.
type AckRecord struct {
	IncidentID string
	TeamName   string
	ByUID      string
	Latency    time.Duration // time from dispatch to acknowledgment
	Time       time.Time
}

// AckRecorder records team acknowledgments.
type AckRecorder interface {
	RecordAck(rec AckRecord) error
}

// DeliveryRecord captures the notification fan-out outcome for an
// incident.
type DeliveryRecord struct {
	IncidentID string
	Success    int
	Failure    int
	Time       time.Time
}

// DeliveryRecorder records notification delivery counts.
type DeliveryRecorder interface {
	RecordDelivery(rec DeliveryRecord) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatch([]DispatchRecord) error { return nil }
func (NopSink) RecordAck(AckRecord) error             { return nil }
func (NopSink) RecordDelivery(DeliveryRecord) error   { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards to every sink, returning the first error.
func (m *MultiSink) RecordDispatch(records []DispatchRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(records); err != nil {
			return err
		}
	}
	return nil
}

// RecordAck forwards acknowledgments when supported by the sink.
func (m *MultiSink) RecordAck(rec AckRecord) error {
	for _, s := range m.Sinks {
		if ar, ok := s.(AckRecorder); ok {
			if err := ar.RecordAck(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDelivery forwards delivery counts when supported by the sink.
func (m *MultiSink) RecordDelivery(rec DeliveryRecord) error {
	for _, s := range m.Sinks {
		if dr, ok := s.(DeliveryRecorder); ok {
			if err := dr.RecordDelivery(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
