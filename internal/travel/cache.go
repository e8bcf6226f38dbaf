package travel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// snapshotSource loads the full travel collection for the cache.
type snapshotSource interface {
	FetchAll(ctx context.Context) ([]Travel, error)
}

// Cache is an in-memory mirror of the whole travel collection keyed by id.
//
// It starts empty and is populated once, on first use, from a full fetch.
// After that it only changes through Insert and Remove. Locking:
//   - gate (a weighted semaphore of 1) serializes population and mutations,
//     so a store write and its cache update can't interleave with a populate.
//   - mu guards byID and ids. Reads share it, Insert/Remove and the final
//     swap of a populate hold it exclusively.
type Cache struct {
	src snapshotSource
	log *slog.Logger

	gate      *semaphore.Weighted
	populated atomic.Bool

	mu   sync.RWMutex
	byID map[int64]Travel
	ids  []int64 // ascending
}

// NewCache returns an empty cache backed by src.
func NewCache(src snapshotSource, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		src:  src,
		log:  log,
		gate: semaphore.NewWeighted(1),
		byID: map[int64]Travel{},
	}
}

// Populated reports whether the cache has been loaded.
func (c *Cache) Populated() bool {
	return c.populated.Load()
}

// EnsurePopulated loads the cache if it is still empty. Concurrent callers
// wait for a single in-flight load. If ctx ends before the load completes,
// nothing is applied and the next caller loads again.
func (c *Cache) EnsurePopulated(ctx context.Context) error {
	if c.populated.Load() {
		return nil
	}
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for travel cache: %w", err)
	}
	defer c.gate.Release(1)

	if c.populated.Load() {
		return nil
	}

	travels, err := c.src.FetchAll(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("populating travel cache: %w", err)
	}

	byID := make(map[int64]Travel, len(travels))
	ids := make([]int64, 0, len(travels))
	for _, t := range travels {
		if _, dup := byID[t.ID]; dup {
			continue
		}
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}
	slices.Sort(ids)

	c.mu.Lock()
	c.byID = byID
	c.ids = ids
	c.populated.Store(true)
	c.mu.Unlock()

	c.log.Info("travel cache populated", "travels", len(ids))
	return nil
}

// Mutate runs fn while holding the population gate. Store writes and the
// matching Insert or Remove must happen inside fn.
func (c *Cache) Mutate(ctx context.Context, fn func() error) error {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for travel cache: %w", err)
	}
	defer c.gate.Release(1)
	return fn()
}

// Get returns the cached travel with the given id.
func (c *Cache) Get(id int64) (Travel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// List returns one page of travels ordered by id.
func (c *Cache) List(p Page) []Travel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := Paginate(c.ids, p)
	out := make([]Travel, len(ids))
	for i, id := range ids {
		out[i] = c.byID[id]
	}
	return out
}

// FindFirstByCountry returns the lowest-id travel matching s.
func (c *Cache) FindFirstByCountry(s Search) (Travel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range c.ids {
		if t := c.byID[id]; s.Matches(t.Country) {
			return t, true
		}
	}
	return Travel{}, false
}

// FindByCountry returns one page of the travels matching s, ordered by id.
func (c *Cache) FindByCountry(s Search, p Page) []Travel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []Travel
	for _, id := range c.ids {
		if t := c.byID[id]; s.Matches(t.Country) {
			matched = append(matched, t)
		}
	}
	return Paginate(matched, p)
}

// Insert adds a persisted travel. It is a no-op while the cache is empty,
// since the eventual full fetch will include the record.
func (c *Cache) Insert(t Travel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.populated.Load() {
		return nil
	}
	if _, ok := c.byID[t.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, t.ID)
	}
	i, _ := slices.BinarySearch(c.ids, t.ID)
	c.ids = slices.Insert(c.ids, i, t.ID)
	c.byID[t.ID] = t
	return nil
}

// Remove deletes the travel with the given id. Absent ids are ignored.
func (c *Cache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return
	}
	delete(c.byID, id)
	if i, found := slices.BinarySearch(c.ids, id); found {
		c.ids = slices.Delete(c.ids, i, i+1)
	}
}
