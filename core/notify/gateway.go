// Package notify defines the push gateway used to alert responders of
// a new incident. Delivery is best-effort: failures are logged and
// reported as counts, never rolled back into the incident write.
package notify

import "context"

// Alert is one notification fan-out request.
type Alert struct {
	TargetUIDs []string          `json:"target_uids,omitempty"`
	Tokens     []string          `json:"tokens,omitempty"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Data       map[string]string `json:"data,omitempty"`
}

// Receipt reports per-target delivery results.
type Receipt struct {
	Success int               `json:"success"`
	Failure int               `json:"failure"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Gateway delivers alerts to responders.
type Gateway interface {
	Send(ctx context.Context, alert Alert) (Receipt, error)
}

// NopGateway drops every alert, reporting full success.
type NopGateway struct{}

func (NopGateway) Send(ctx context.Context, alert Alert) (Receipt, error) {
	return Receipt{Success: len(alert.TargetUIDs) + len(alert.Tokens)}, nil
}
