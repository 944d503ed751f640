package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/openaid/respond/core/notify"
	"github.com/openaid/respond/infra/logger"
)

type stubToken struct{ err error }

func (t stubToken) Wait() bool                     { return true }
func (t stubToken) WaitTimeout(time.Duration) bool { return true }
func (t stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t stubToken) Error() error { return t.err }

type stubClient struct {
	published  map[string][]byte
	failTopics map[string]bool
}

func newStubClient() *stubClient {
	return &stubClient{published: make(map[string][]byte), failTopics: make(map[string]bool)}
}

func (c *stubClient) IsConnected() bool { return true }
func (c *stubClient) Disconnect(uint)  {}
func (c *stubClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	if c.failTopics[topic] {
		return stubToken{err: errors.New("broker refused")}
	}
	c.published[topic] = payload.([]byte)
	return stubToken{}
}

func TestGatewayFansOutPerTarget(t *testing.T) {
	client := newStubClient()
	gw := NewGatewayWithClient(client, "respond", 1, logger.NopLogger{})

	receipt, err := gw.Send(context.Background(), notify.Alert{
		TargetUIDs: []string{"a", "b"},
		Title:      "Incident 0310-0001",
		Body:       "structure fire (high) at 1 Main St",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if receipt.Success != 2 || receipt.Failure != 0 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if _, ok := client.published["respond/responders/a/alerts"]; !ok {
		t.Fatalf("missing publish for a: %v", client.published)
	}
	if _, ok := client.published["respond/responders/b/alerts"]; !ok {
		t.Fatalf("missing publish for b")
	}
}

func TestGatewayPartialFailureContinues(t *testing.T) {
	client := newStubClient()
	client.failTopics["respond/responders/a/alerts"] = true
	gw := NewGatewayWithClient(client, "respond", 1, logger.NopLogger{})

	receipt, err := gw.Send(context.Background(), notify.Alert{TargetUIDs: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("partial failure must not error: %v", err)
	}
	if receipt.Success != 1 || receipt.Failure != 1 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if receipt.Errors["a"] == "" {
		t.Fatalf("per-target error missing")
	}
}

func TestMockGateway(t *testing.T) {
	gw := NewMockGateway()
	gw.FailUIDs["b"] = true
	receipt, err := gw.Send(context.Background(), notify.Alert{TargetUIDs: []string{"a", "b"}, Title: "t"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if receipt.Success != 1 || receipt.Failure != 1 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if gw.Alerts["a"].Title != "t" {
		t.Fatalf("alert not recorded")
	}
}
