package metrics

import (
	"testing"
	"time"
)

type captureSink struct {
	dispatches []DispatchRecord
	acks       []AckRecord
}

func (c *captureSink) RecordDispatch(recs []DispatchRecord) error {
	c.dispatches = append(c.dispatches, recs...)
	return nil
}

func (c *captureSink) RecordAck(rec AckRecord) error {
	c.acks = append(c.acks, rec)
	return nil
}

func TestMultiSinkFanOut(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{}
	m := NewMultiSink(a, b, NopSink{})

	recs := []DispatchRecord{{IncidentID: "i1", TeamName: "alpha", Members: 3, Time: time.Now()}}
	if err := m.RecordDispatch(recs); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(a.dispatches) != 1 || len(b.dispatches) != 1 {
		t.Fatalf("dispatch not fanned out")
	}

	if err := m.RecordAck(AckRecord{IncidentID: "i1", TeamName: "alpha"}); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(a.acks) != 1 || len(b.acks) != 1 {
		t.Fatalf("ack not fanned out")
	}
}

func TestPromSinkRegistersOnce(t *testing.T) {
	s1, err := NewPromSink(nil)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	s2, err := NewPromSink(nil)
	if err != nil {
		t.Fatalf("second registration must reuse collectors: %v", err)
	}
	if s1 == nil || s2 == nil {
		t.Fatalf("nil sink")
	}
	if err := s2.RecordDispatch([]DispatchRecord{{TeamName: "alpha", Severity: "high"}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s2.RecordAck(AckRecord{TeamName: "alpha", Latency: 3 * time.Second}); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := s2.RecordDelivery(DeliveryRecord{Success: 4, Failure: 1}); err != nil {
		t.Fatalf("delivery: %v", err)
	}
}
