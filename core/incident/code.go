package incident

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openaid/respond/core/store"
)

// codeSequence hands out human-readable incident codes of the form
// MMDD-NNNN. The counter is seeded once from the store's document count
// and then increments monotonically in-process, so codes are
// gap-tolerant labels rather than a strict sequence, and never collide
// within one coordinator.
type codeSequence struct {
	mu     sync.Mutex
	next   int
	seeded bool
}

func (c *codeSequence) generate(ctx context.Context, docs store.DocumentStore, now time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seeded {
		n, err := docs.Count(ctx, store.Incidents)
		if err != nil {
			return "", err
		}
		c.next = n
		c.seeded = true
	}
	c.next++
	return fmt.Sprintf("%s-%04d", now.Format("0102"), c.next), nil
}
