// Package deck maintains the per-team role-assignment decks and their
// rotation policy. Each roster key (team + shift) owns up to three
// ordered decks; the oldest surviving deck is the current one.
package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/openaid/respond/core/assign"
	"github.com/openaid/respond/core/events"
	"github.com/openaid/respond/core/logger"
	"github.com/openaid/respond/core/model"
	"github.com/openaid/respond/core/store"
	"github.com/openaid/respond/internal/eventbus"
)

// MaxDecks is the number of decks a roster key may hold.
const MaxDecks = 3

// RotationPeriod is the age at which the oldest deck is retired.
const RotationPeriod = 24 * time.Hour

// ErrCapacityExceeded is returned when a fourth deck would be created.
var ErrCapacityExceeded = errors.New("roster already holds the maximum number of decks")

// ErrConflictingAssignment is returned when a save would place a
// responder in two slots of one deck or on two rosters at once.
var ErrConflictingAssignment = errors.New("responder already holds a slot")

// rosterDoc is the persisted shape: the whole deck list of one roster
// key is written as a single document so concurrent saves follow
// last-writer-wins at the roster level.
type rosterDoc struct {
	Key   string       `json:"key"`
	Decks []model.Deck `json:"decks"`
}

// Store owns the deck lists and serializes rotation against interactive
// saves per roster key.
type Store struct {
	docs  store.DocumentStore
	bus   *eventbus.Bus
	log   logger.Logger
	loc   *time.Location
	clock func() time.Time

	mu      sync.RWMutex
	rosters map[string][]model.Deck
	locks   map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source; used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLocation sets the organization's home timezone used for shift
// boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// NewStore creates a Store backed by the given document store. The bus
// may be nil.
func NewStore(docs store.DocumentStore, bus *eventbus.Bus, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		docs:    docs,
		bus:     bus,
		log:     log,
		loc:     time.Local,
		clock:   time.Now,
		rosters: make(map[string][]model.Deck),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// lockFor returns the serialization mutex for one roster key.
func (s *Store) lockFor(key model.DeckKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key.String()
	if l, ok := s.locks[k]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[k] = l
	return l
}

// Load reads every roster document into memory.
func (s *Store) Load(ctx context.Context) error {
	raws, err := s.docs.List(ctx, store.Decks)
	if err != nil {
		return err
	}
	rosters := make(map[string][]model.Deck, len(raws))
	for _, raw := range raws {
		var doc rosterDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.log.Warnf("skipping malformed roster document: %v", err)
			continue
		}
		sortDecks(doc.Decks)
		rosters[doc.Key] = doc.Decks
	}
	s.mu.Lock()
	s.rosters = rosters
	s.mu.Unlock()
	return nil
}

// Apply replaces one roster from a change-feed document. Remote updates
// are applied wholesale, never merged.
func (s *Store) Apply(c store.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Doc == nil {
		delete(s.rosters, c.ID)
		return
	}
	var doc rosterDoc
	if err := json.Unmarshal(c.Doc, &doc); err != nil {
		s.log.Warnf("roster change for %s not applied: %v", c.ID, err)
		return
	}
	sortDecks(doc.Decks)
	s.rosters[doc.Key] = doc.Decks
}

// Decks returns copies of the deck list for one roster key,
// oldest-first.
func (s *Store) Decks(key model.DeckKey) []model.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDecks(s.rosters[key.String()])
}

// Current returns the current (oldest surviving) deck for the key.
func (s *Store) Current(key model.DeckKey) (model.Deck, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decks := s.rosters[key.String()]
	if len(decks) == 0 {
		return model.Deck{}, false
	}
	return decks[0].Clone(), true
}

// Snapshot returns a copy of every roster, keyed by roster key string.
func (s *Store) Snapshot() map[string][]model.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make(map[string][]model.Deck, len(s.rosters))
	for k, decks := range s.rosters {
		res[k] = cloneDecks(decks)
	}
	return res
}

// Keys returns every known roster key, sorted.
func (s *Store) Keys() []model.DeckKey {
	s.mu.RLock()
	ks := make([]string, 0, len(s.rosters))
	for k := range s.rosters {
		ks = append(ks, k)
	}
	s.mu.RUnlock()
	sort.Strings(ks)
	keys := make([]model.DeckKey, 0, len(ks))
	for _, k := range ks {
		key, err := model.ParseDeckKey(k)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// AddDeck appends an empty deck to the roster. It fails with
// ErrCapacityExceeded when the roster already holds MaxDecks.
func (s *Store) AddDeck(ctx context.Context, key model.DeckKey) (model.Deck, error) {
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	decks := s.Decks(key)
	if len(decks) >= MaxDecks {
		return model.Deck{}, fmt.Errorf("%s: %w", key, ErrCapacityExceeded)
	}
	now := s.clock()
	d := model.NewDeck(key, len(decks), now)
	d.UpdatedAt = now
	decks = append(decks, d)
	if err := s.persist(ctx, key, decks); err != nil {
		return model.Deck{}, err
	}
	return d, nil
}

// Save overwrites the role map of one deck, stamps the shift window
// derived from the roster's shift key and updates updatedAt. The write
// replaces the whole roster document (last-writer-wins).
func (s *Store) Save(ctx context.Context, key model.DeckKey, index int, roles map[model.RoleSlot]*model.ResponderRef) (model.Deck, error) {
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	decks := s.Decks(key)
	if index < 0 || index >= len(decks) {
		return model.Deck{}, fmt.Errorf("roster %s has no deck %d", key, index)
	}
	norm := normalizeRoles(roles)
	if err := s.checkRoleConflicts(key, norm); err != nil {
		return model.Deck{}, err
	}
	now := s.clock()
	d := decks[index]
	d.Roles = norm
	d.ShiftStart, d.ShiftEnd = ShiftWindow(key.Shift, now, s.loc)
	d.UpdatedAt = now
	decks[index] = d
	if err := s.persist(ctx, key, decks); err != nil {
		return model.Deck{}, err
	}
	if s.bus != nil {
		s.bus.Publish(events.DeckSavedEvent{Key: key, Index: index, At: now})
	}
	deckSaves.Inc()
	return d, nil
}

// persist writes the roster document and only then updates the local
// mirror, so a failed write leaves no optimistic state behind.
func (s *Store) persist(ctx context.Context, key model.DeckKey, decks []model.Deck) error {
	doc := rosterDoc{Key: key.String(), Decks: decks}
	if err := s.docs.Put(ctx, store.Decks, doc.Key, doc); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	s.mu.Lock()
	s.rosters[doc.Key] = cloneDecks(decks)
	s.mu.Unlock()
	return nil
}

// checkRoleConflicts rejects role maps that would book a responder
// twice: the same uid in two slots of the submitted deck, or a uid
// already committed on another roster's decks.
func (s *Store) checkRoleConflicts(key model.DeckKey, roles map[model.RoleSlot]*model.ResponderRef) error {
	seen := make(map[string]model.RoleSlot, len(roles))
	for _, slot := range model.RoleSlots {
		ref := roles[slot]
		if ref == nil {
			continue
		}
		if prev, ok := seen[ref.UID]; ok {
			return fmt.Errorf("%w: %s holds both %s and %s", ErrConflictingAssignment, ref.UID, prev, slot)
		}
		seen[ref.UID] = slot
	}
	excluded := assign.ExclusionSet(s.Snapshot(), key)
	for uid := range seen {
		if _, ok := excluded[uid]; ok {
			return fmt.Errorf("%w: %s is committed on another roster", ErrConflictingAssignment, uid)
		}
	}
	return nil
}

// normalizeRoles copies the role map, dropping vacant slots and
// stripping refs down to their defined fields so no empty markers are
// persisted.
func normalizeRoles(roles map[model.RoleSlot]*model.ResponderRef) map[model.RoleSlot]*model.ResponderRef {
	out := make(map[model.RoleSlot]*model.ResponderRef, len(roles))
	for _, slot := range model.RoleSlots {
		ref := roles[slot]
		if ref == nil || ref.UID == "" {
			continue
		}
		r := model.ResponderRef{UID: ref.UID, FullName: ref.FullName, Email: ref.Email}
		out[slot] = &r
	}
	return out
}

// ShiftWindow returns the fixed duty window for a shift key anchored on
// the date of now in the given location. Day shift runs 06:00-18:00;
// night shift runs 18:00-06:00 the next day.
func ShiftWindow(shift model.ShiftKey, now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	y, m, d := local.Date()
	switch shift {
	case model.ShiftNight:
		start := time.Date(y, m, d, 18, 0, 0, 0, loc)
		return start, start.Add(12 * time.Hour)
	default:
		start := time.Date(y, m, d, 6, 0, 0, 0, loc)
		return start, start.Add(12 * time.Hour)
	}
}

func sortDecks(decks []model.Deck) {
	sort.SliceStable(decks, func(i, j int) bool {
		return decks[i].CreatedAt.Before(decks[j].CreatedAt)
	})
	for i := range decks {
		decks[i].Index = i
	}
}

func cloneDecks(decks []model.Deck) []model.Deck {
	out := make([]model.Deck, len(decks))
	for i, d := range decks {
		out[i] = d.Clone()
	}
	return out
}
