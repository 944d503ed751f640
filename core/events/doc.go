// Package events defines the coordination events emitted on the event bus.
//
// Available event types:
//   - IncidentCreatedEvent: a new incident was dispatched
//   - TeamAckEvent: a team acknowledged (or re-acknowledged) an incident
//   - IncidentClosedEvent: an incident was resolved or cancelled
//   - DeckSavedEvent: a deck's role map was persisted
//   - DeckRotatedEvent: a roster key rotated its decks
//   - StateReplacedEvent: a session replaced its local mirror
//   - LogoutEvent: an operator signed out, fan-out to peer sessions
package events
