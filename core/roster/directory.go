package roster

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/openaid/respond/core/logger"
	"github.com/openaid/respond/core/model"
	"github.com/openaid/respond/core/store"
)

// Directory is the in-memory mirror of responder profiles. Updates from
// the document store replace the whole snapshot; there is no field
// merging.
type Directory struct {
	mu   sync.RWMutex
	byID map[string]model.Responder
	log  logger.Logger
}

// NewDirectory creates an empty directory.
func NewDirectory(log logger.Logger) *Directory {
	return &Directory{byID: make(map[string]model.Responder), log: log}
}

// Load reads every responder document from the store and replaces the
// snapshot.
func (d *Directory) Load(ctx context.Context, docs store.DocumentStore) error {
	raws, err := docs.List(ctx, store.Responders)
	if err != nil {
		return err
	}
	responders := make([]model.Responder, 0, len(raws))
	for _, raw := range raws {
		var r model.Responder
		if err := json.Unmarshal(raw, &r); err != nil {
			d.log.Warnf("skipping malformed responder document: %v", err)
			continue
		}
		responders = append(responders, r)
	}
	d.Replace(responders)
	return nil
}

// Replace swaps the entire snapshot.
func (d *Directory) Replace(responders []model.Responder) {
	byID := make(map[string]model.Responder, len(responders))
	for _, r := range responders {
		byID[r.ID] = r
	}
	d.mu.Lock()
	d.byID = byID
	d.mu.Unlock()
}

// Apply upserts a single responder from a change-feed document.
func (d *Directory) Apply(c store.Change) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c.Doc == nil {
		delete(d.byID, c.ID)
		return
	}
	var r model.Responder
	if err := json.Unmarshal(c.Doc, &r); err != nil {
		d.log.Warnf("responder change for %s not applied: %v", c.ID, err)
		return
	}
	d.byID[r.ID] = r
}

// Get returns the responder with the given uid.
func (d *Directory) Get(uid string) (model.Responder, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.byID[uid]
	return r, ok
}

// All returns every responder, ordered by id.
func (d *Directory) All() []model.Responder {
	d.mu.RLock()
	defer d.mu.RUnlock()
	res := make([]model.Responder, 0, len(d.byID))
	for _, r := range d.byID {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}
