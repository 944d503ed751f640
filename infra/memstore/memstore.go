// Package memstore provides an in-memory DocumentStore used for local
// mode and tests. Semantics mirror the remote directory service:
// whole-document writes, last-writer-wins, non-blocking change fan-out.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/openaid/respond/core/store"
	"github.com/openaid/respond/internal/eventbus"
)

// Store is an in-memory DocumentStore.
type Store struct {
	mu    sync.RWMutex
	data  map[string]map[string]json.RawMessage
	buses map[string]*eventbus.TypedBus[store.Change]

	// FailPuts makes every Put return the given error; used by tests to
	// exercise remote-write failure paths.
	FailPuts error

	// FailCounts makes every Count return the given error.
	FailCounts error
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		data:  make(map[string]map[string]json.RawMessage),
		buses: make(map[string]*eventbus.TypedBus[store.Change]),
	}
}

func (s *Store) bus(collection string) *eventbus.TypedBus[store.Change] {
	if b, ok := s.buses[collection]; ok {
		return b
	}
	b := eventbus.NewTyped[store.Change]()
	s.buses[collection] = b
	return b
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	s.mu.RLock()
	raw, ok := s.data[collection][id]
	s.mu.RUnlock()
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *Store) Put(ctx context.Context, collection, id string, doc any) error {
	if s.FailPuts != nil {
		return s.FailPuts
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]json.RawMessage)
	}
	s.data[collection][id] = raw
	b := s.bus(collection)
	s.mu.Unlock()
	b.Publish(store.Change{Collection: collection, ID: id, Doc: raw})
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.data[collection], id)
	b := s.bus(collection)
	s.mu.Unlock()
	b.Publish(store.Change{Collection: collection, ID: id})
	return nil
}

// List returns every document in the collection, ordered by id for
// deterministic iteration.
func (s *Store) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data[collection]))
	for id := range s.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	res := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		res = append(res, s.data[collection][id])
	}
	return res, nil
}

func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if s.FailCounts != nil {
		return 0, s.FailCounts
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[collection]), nil
}

func (s *Store) Subscribe(collection string) <-chan store.Change {
	s.mu.Lock()
	b := s.bus(collection)
	s.mu.Unlock()
	return b.Subscribe()
}

func (s *Store) Unsubscribe(collection string, sub <-chan store.Change) {
	s.mu.Lock()
	b := s.bus(collection)
	s.mu.Unlock()
	b.Unsubscribe(sub)
}
