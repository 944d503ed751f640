package events

import "time"

// StateReplacedEvent announces that a session replaced its local mirror
// with a new snapshot. Peers adopt it only when it is newer than their
// own state and recent enough to be trusted.
type StateReplacedEvent struct {
	Origin    string // session id of the publisher
	Timestamp time.Time
}

// LogoutEvent forces every other session of the same operator to sign
// out. Best-effort: no acknowledgment from peers is awaited.
type LogoutEvent struct {
	Origin      string
	OperatorUID string
	At          time.Time
}
