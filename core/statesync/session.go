package statesync

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/openaid/respond/core/events"
	"github.com/openaid/respond/core/logger"
	"github.com/openaid/respond/core/model"
	"github.com/openaid/respond/core/store"
	"github.com/openaid/respond/internal/eventbus"
)

// rosterState mirrors the persisted roster document shape.
type rosterState struct {
	Key   string       `json:"key"`
	Decks []model.Deck `json:"decks"`
}

// Session is one operator session's live mirror. Changes from the store
// feed replace the affected document wholesale; peer snapshots are
// adopted only when strictly newer than local state and recent.
type Session struct {
	id       string
	operator string
	docs     store.DocumentStore
	snaps    SnapshotStore
	bus      *eventbus.Bus
	log      logger.Logger

	clock     func() time.Time
	interval  time.Duration
	onSignOut func()

	mu         sync.RWMutex
	incidents  map[string]model.Incident
	rosters    map[string][]model.Deck
	lastUpdate time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source; used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// WithInterval overrides the snapshot period.
func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSignOutHandler installs the callback invoked when a peer session
// of the same operator broadcasts a logout.
func WithSignOutHandler(fn func()) Option {
	return func(s *Session) { s.onSignOut = fn }
}

// NewSession creates a session mirror.
func NewSession(id, operator string, docs store.DocumentStore, snaps SnapshotStore, bus *eventbus.Bus, log logger.Logger, opts ...Option) (*Session, error) {
	if id == "" || docs == nil || snaps == nil || bus == nil {
		return nil, fmt.Errorf("statesync: nil parameter provided to NewSession")
	}
	s := &Session{
		id:        id,
		operator:  operator,
		docs:      docs,
		snaps:     snaps,
		bus:       bus,
		log:       log,
		clock:     time.Now,
		interval:  DefaultSnapshotInterval,
		incidents: make(map[string]model.Incident),
		rosters:   make(map[string][]model.Deck),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// ID returns the session's origin tag.
func (s *Session) ID() string { return s.id }

// Restore loads this session's last snapshot. A snapshot older than
// StaleAfter is discarded: counted and logged, never an error.
func (s *Session) Restore(ctx context.Context) error {
	snap, err := s.snaps.Load(ctx, s.id)
	if err == ErrNoSnapshot {
		return nil
	}
	if err != nil {
		return err
	}
	now := s.clock()
	if now.Sub(snap.Timestamp) > StaleAfter {
		staleDiscards.Inc()
		s.log.Infof("session %s: discarding snapshot from %s as stale", s.id, snap.Timestamp.Format(time.RFC3339))
		return nil
	}
	s.adopt(snap)
	return nil
}

// Run pumps the store change feeds, the internal bus and the snapshot
// ticker until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	incidents := s.docs.Subscribe(store.Incidents)
	decks := s.docs.Subscribe(store.Decks)
	busEvents := s.bus.Subscribe()
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		s.docs.Unsubscribe(store.Incidents, incidents)
		s.docs.Unsubscribe(store.Decks, decks)
		s.bus.Unsubscribe(busEvents)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-incidents:
			if !ok {
				return
			}
			s.applyIncident(c)
		case c, ok := <-decks:
			if !ok {
				return
			}
			s.applyRoster(c)
		case e, ok := <-busEvents:
			if !ok {
				return
			}
			s.handleEvent(ctx, e)
		case <-ticker.C:
			if err := s.TakeSnapshot(ctx); err != nil {
				s.log.Errorf("session %s: snapshot failed: %v", s.id, err)
			}
		}
	}
}

// applyIncident replaces one incident from the change feed. A nil doc
// removes it.
func (s *Session) applyIncident(c store.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Doc == nil {
		delete(s.incidents, c.ID)
		s.lastUpdate = s.clock()
		return
	}
	var inc model.Incident
	if err := json.Unmarshal(c.Doc, &inc); err != nil {
		s.log.Warnf("session %s: incident change %s not applied: %v", s.id, c.ID, err)
		return
	}
	s.incidents[inc.ID] = inc
	s.lastUpdate = s.clock()
}

// applyRoster replaces one roster's deck list from the change feed.
func (s *Session) applyRoster(c store.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Doc == nil {
		delete(s.rosters, c.ID)
		s.lastUpdate = s.clock()
		return
	}
	var doc rosterState
	if err := json.Unmarshal(c.Doc, &doc); err != nil {
		s.log.Warnf("session %s: roster change %s not applied: %v", s.id, c.ID, err)
		return
	}
	s.rosters[doc.Key] = doc.Decks
	s.lastUpdate = s.clock()
}

// handleEvent reacts to peer snapshots and logout broadcasts.
func (s *Session) handleEvent(ctx context.Context, e eventbus.Event) {
	switch ev := e.(type) {
	case events.StateReplacedEvent:
		s.maybeAdoptPeer(ctx, ev)
	case events.LogoutEvent:
		s.handleLogout(ev)
	}
}

// maybeAdoptPeer adopts a peer session's snapshot iff it is strictly
// newer than local state and under AdoptionWindow old. Anything else is
// silently ignored; staleness is not an error.
func (s *Session) maybeAdoptPeer(ctx context.Context, ev events.StateReplacedEvent) {
	if ev.Origin == s.id {
		return
	}
	now := s.clock()
	s.mu.RLock()
	local := s.lastUpdate
	s.mu.RUnlock()
	if !ev.Timestamp.After(local) || now.Sub(ev.Timestamp) >= AdoptionWindow {
		return
	}
	snap, err := s.snaps.Load(ctx, ev.Origin)
	if err != nil {
		s.log.Warnf("session %s: peer snapshot %s unavailable: %v", s.id, ev.Origin, err)
		return
	}
	s.adopt(snap)
	peerAdoptions.Inc()
	s.log.Debugf("session %s adopted state from %s", s.id, ev.Origin)
}

// adopt replaces the whole mirror. No merge.
func (s *Session) adopt(snap Snapshot) {
	incidents := make(map[string]model.Incident, len(snap.Incidents))
	for k, v := range snap.Incidents {
		incidents[k] = v
	}
	rosters := make(map[string][]model.Deck, len(snap.Rosters))
	for k, v := range snap.Rosters {
		rosters[k] = append([]model.Deck(nil), v...)
	}
	s.mu.Lock()
	s.incidents = incidents
	s.rosters = rosters
	s.lastUpdate = snap.Timestamp
	s.mu.Unlock()
}

// TakeSnapshot persists the mirror and announces it on the bus.
func (s *Session) TakeSnapshot(ctx context.Context) error {
	now := s.clock()
	s.mu.RLock()
	snap := Snapshot{
		Origin:    s.id,
		Timestamp: now,
		Incidents: make(map[string]model.Incident, len(s.incidents)),
		Rosters:   make(map[string][]model.Deck, len(s.rosters)),
	}
	for k, v := range s.incidents {
		snap.Incidents[k] = v
	}
	for k, v := range s.rosters {
		snap.Rosters[k] = append([]model.Deck(nil), v...)
	}
	s.mu.RUnlock()
	if err := s.snaps.Save(ctx, s.id, snap); err != nil {
		return err
	}
	snapshotsTaken.Inc()
	s.bus.Publish(events.StateReplacedEvent{Origin: s.id, Timestamp: now})
	return nil
}

// Logout broadcasts a sign-out to peer sessions of the same operator.
// Fire-and-forget; no peer acknowledgment is awaited.
func (s *Session) Logout() {
	s.bus.Publish(events.LogoutEvent{Origin: s.id, OperatorUID: s.operator, At: s.clock()})
}

func (s *Session) handleLogout(ev events.LogoutEvent) {
	if ev.Origin == s.id || ev.OperatorUID != s.operator {
		return
	}
	s.log.Infof("session %s signing out: operator %s logged out elsewhere", s.id, ev.OperatorUID)
	if s.onSignOut != nil {
		s.onSignOut()
	}
}

// Incident returns one mirrored incident.
func (s *Session) Incident(id string) (model.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inc, ok := s.incidents[id]
	return inc, ok
}

// Incidents returns the mirrored incidents, newest first.
func (s *Session) Incidents() []model.Incident {
	s.mu.RLock()
	out := make([]model.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		out = append(out, inc)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Rosters returns the mirrored deck lists keyed by roster key.
func (s *Session) Rosters() map[string][]model.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]model.Deck, len(s.rosters))
	for k, v := range s.rosters {
		out[k] = append([]model.Deck(nil), v...)
	}
	return out
}
