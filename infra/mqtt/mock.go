package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/openaid/respond/core/notify"
)

// MockGateway is a simple gateway used in tests. It records the last
// alert per target and fails targets listed in FailUIDs.
type MockGateway struct {
	Alerts   map[string]notify.Alert
	FailUIDs map[string]bool
	mu       sync.Mutex
}

// NewMockGateway creates a new MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Alerts:   make(map[string]notify.Alert),
		FailUIDs: make(map[string]bool),
	}
}

// Send records the alert per target or counts a failure if configured
// to fail.
func (m *MockGateway) Send(ctx context.Context, alert notify.Alert) (notify.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt := notify.Receipt{}
	for _, uid := range alert.TargetUIDs {
		if m.FailUIDs[uid] {
			receipt.Failure++
			if receipt.Errors == nil {
				receipt.Errors = make(map[string]string)
			}
			receipt.Errors[uid] = fmt.Sprintf("publish to %s failed", uid)
			continue
		}
		m.Alerts[uid] = alert
		receipt.Success++
	}
	return receipt, nil
}
