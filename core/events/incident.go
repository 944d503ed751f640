package events

import (
	"time"

	"github.com/openaid/respond/core/model"
)

// IncidentCreatedEvent is published when an incident has been persisted
// and dispatched to its teams.
type IncidentCreatedEvent struct {
	IncidentID string
	Code       string
	TeamNames  []string
	Targets    int
	CreatedAt  time.Time
}

// TeamAckEvent is published for each team acknowledgment.
type TeamAckEvent struct {
	IncidentID string
	TeamName   string
	ByUID      string
	At         time.Time
}

// IncidentClosedEvent is published when an incident reaches a terminal
// status.
type IncidentClosedEvent struct {
	IncidentID string
	Status     model.IncidentStatus
	ByUID      string
	At         time.Time
}
