package incident

import "errors"

var (
	// ErrValidation indicates a missing or malformed required field.
	// It is raised before any remote write is attempted.
	ErrValidation = errors.New("validation failed")

	// ErrLocationUnresolved is returned when the incident location
	// carries no resolved coordinates. An address string alone is not
	// dispatchable.
	ErrLocationUnresolved = errors.New("location has no resolved coordinates")

	// ErrTeamUnavailable is returned when a selected team/shift has no
	// current deck.
	ErrTeamUnavailable = errors.New("no deck for selected team and shift")

	// ErrNoAvailableResponders is returned when, after availability
	// filtering, no selected team has a single member left.
	ErrNoAvailableResponders = errors.New("no available responders across selected teams")

	// ErrUnknownTeam is returned when an acknowledgment names a team
	// that is not part of the incident.
	ErrUnknownTeam = errors.New("team is not part of this incident")

	// ErrInvalidReason is returned when a cancellation carries no
	// reason code, or the "other" code without free text.
	ErrInvalidReason = errors.New("cancellation reason required")

	// ErrAlreadyClosed is returned when a lifecycle transition is
	// attempted on a resolved or cancelled incident.
	ErrAlreadyClosed = errors.New("incident already resolved or cancelled")
)
