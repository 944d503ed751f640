package model

import "time"

// Role classifies a responder account.
type Role string

const (
	RoleResponder  Role = "responder"
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
)

// Status describes a responder's duty state. Only StatusActive makes a
// responder eligible for new assignment; StatusResponding means the
// responder is committed to an ongoing incident.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusResponding Status = "responding"
)

// Responder is a profile held by the responder directory. Profiles are
// edited externally and read-only to the coordination core.
type Responder struct {
	ID         string     `json:"id"`
	FullName   string     `json:"full_name"`
	Email      string     `json:"email,omitempty"`
	Role       Role       `json:"role"`
	Status     Status     `json:"status"`
	ShiftStart *time.Time `json:"shift_start,omitempty"`
	ShiftEnd   *time.Time `json:"shift_end,omitempty"`
}

// Ref returns the denormalized point-in-time copy of the responder that
// is embedded in decks and incident snapshots. It does not track later
// profile edits.
func (r Responder) Ref() ResponderRef {
	return ResponderRef{UID: r.ID, FullName: r.FullName, Email: r.Email}
}

// ResponderRef is a frozen membership reference.
type ResponderRef struct {
	UID      string `json:"uid"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
}
