// Package audit persists the immutable trail of dispatch decisions and
// incident lifecycle transitions.
package audit

import (
	"context"
	"time"
)

// Kind classifies an audit entry.
type Kind string

const (
	KindDispatch    Kind = "dispatch"
	KindAcknowledge Kind = "acknowledge"
	KindCancel      Kind = "cancel"
	KindResolve     Kind = "resolve"
)

// Entry captures one coordination decision. Entries are append-only.
type Entry struct {
	Timestamp   time.Time         `json:"timestamp"`
	Kind        Kind              `json:"kind"`
	IncidentID  string            `json:"incident_id"`
	Code        string            `json:"code,omitempty"`
	Teams       []string          `json:"teams,omitempty"`
	MemberUIDs  []string          `json:"member_uids,omitempty"`
	Actor       string            `json:"actor,omitempty"`
	PriorStatus string            `json:"prior_status,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Location    string            `json:"location,omitempty"`
	Delivery    map[string]string `json:"delivery,omitempty"`
}

// Query defines filters for retrieving entries.
type Query struct {
	Start      time.Time
	End        time.Time
	IncidentID string
	Kind       Kind
	Team       string
}

// Store persists entries and supports querying.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// matches reports whether the entry satisfies the query filters.
func matches(e Entry, q Query) bool {
	if !q.Start.IsZero() && e.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Timestamp.After(q.End) {
		return false
	}
	if q.IncidentID != "" && e.IncidentID != q.IncidentID {
		return false
	}
	if q.Kind != "" && e.Kind != q.Kind {
		return false
	}
	if q.Team != "" {
		found := false
		for _, t := range e.Teams {
			if t == q.Team {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
