package model

import "time"

// IncidentStatus is the lifecycle state of an incident.
type IncidentStatus string

const (
	IncidentPending    IncidentStatus = "pending"
	IncidentDispatched IncidentStatus = "dispatched"
	IncidentResolved   IncidentStatus = "resolved"
	IncidentCancelled  IncidentStatus = "cancelled"
)

// AllRespondersTeam is the sentinel team id selecting every currently
// available responder instead of a deck.
const AllRespondersTeam = "all-responders"

// AllRespondersName is the display name used for the sentinel snapshot.
const AllRespondersName = "All Responders"

// Location is a geocoded incident position. Address text alone is not
// sufficient for dispatch; Lat/Lng must be resolved.
type Location struct {
	Address   string   `json:"address"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	Precision string   `json:"precision,omitempty"`
	PlaceID   string   `json:"place_id,omitempty"`
}

// Resolved reports whether the location carries usable coordinates.
func (l Location) Resolved() bool { return l.Lat != nil && l.Lng != nil }

// Reporter identifies who called the incident in.
type Reporter struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// TeamSnapshot is the frozen membership of one responding team at
// dispatch time. Later roster edits never alter it.
type TeamSnapshot struct {
	TeamName string         `json:"team_name"`
	Members  []ResponderRef `json:"members"`
}

// Acknowledgment tracks one team's confirmation of a dispatch.
type Acknowledgment struct {
	Acknowledged   bool           `json:"acknowledged"`
	AcknowledgedBy string         `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at,omitempty"`
	Members        []ResponderRef `json:"members"`
}

// Cancellation is the immutable audit record written when an incident
// is cancelled.
type Cancellation struct {
	PriorStatus IncidentStatus `json:"prior_status"`
	Reason      string         `json:"reason"`
	Detail      string         `json:"detail,omitempty"`
	CancelledBy string         `json:"cancelled_by"`
	CancelledAt time.Time      `json:"cancelled_at"`
}

// Incident is the dispatch aggregate. Team snapshots, location and code
// are immutable after creation; only status, notes and cancellation
// metadata change afterwards.
type Incident struct {
	ID                    string                    `json:"id"`
	Code                  string                    `json:"code"`
	Severity              string                    `json:"severity"`
	Type                  string                    `json:"type"`
	Location              Location                  `json:"location"`
	Reporter              Reporter                  `json:"reporter"`
	RespondingTeamIDs     []string                  `json:"responding_team_ids"`
	TeamSnapshots         []TeamSnapshot            `json:"team_snapshots"`
	Acknowledgments       map[string]Acknowledgment `json:"acknowledgments"`
	AssignedResponderUIDs []string                  `json:"assigned_responder_uids"`
	PrimaryTeamID         string                    `json:"primary_team_id"`
	PrimaryTeamLeaderUID  string                    `json:"primary_team_leader_uid,omitempty"`
	Status                IncidentStatus            `json:"status"`
	Notes                 string                    `json:"notes,omitempty"`
	CreatedAt             time.Time                 `json:"created_at"`
	Cancellation          *Cancellation             `json:"cancellation,omitempty"`
}
