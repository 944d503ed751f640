// Package roster holds the responder directory and the eligibility
// rules deciding who can take new assignments.
package roster

import (
	"time"

	"github.com/openaid/respond/core/model"
)

// IsAvailable reports whether the responder can take a new assignment
// at the given instant. Only active responders qualify; a responder
// already marked responding is committed elsewhere. When both shift
// bounds are present the instant must fall inside the window; a missing
// bound means the responder is treated as always on call.
func IsAvailable(r *model.Responder, now time.Time) bool {
	if r == nil {
		return false
	}
	if r.Status != model.StatusActive {
		return false
	}
	if r.ShiftStart != nil && r.ShiftEnd != nil {
		if now.Before(*r.ShiftStart) || now.After(*r.ShiftEnd) {
			return false
		}
	}
	return true
}

// OnShift reports whether the responder's shift window contains now.
// Used only for ranking; it never excludes anyone from a pool.
func OnShift(r *model.Responder, now time.Time) bool {
	if r == nil || r.ShiftStart == nil || r.ShiftEnd == nil {
		return false
	}
	return !now.Before(*r.ShiftStart) && !now.After(*r.ShiftEnd)
}
