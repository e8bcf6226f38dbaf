package travel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Mode selects whether reads are served from the in-memory cache or pushed
// down to the store.
type Mode int

const (
	// ModeCached serves reads from a lazily populated Cache.
	ModeCached Mode = iota
	// ModeDirect sends every read to the store.
	ModeDirect
)

// ParseMode parses "cached" or "direct".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cached":
		return ModeCached, nil
	case "direct":
		return ModeDirect, nil
	default:
		return 0, fmt.Errorf("unknown catalog mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeCached:
		return "cached"
	case ModeDirect:
		return "direct"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Option configures a Repository.
type Option func(*Repository)

// WithMode sets the read strategy. The default is ModeCached.
func WithMode(m Mode) Option {
	return func(r *Repository) { r.mode = m }
}

// WithMatchMode sets how country searches match. The default is MatchPrefix.
func WithMatchMode(m MatchMode) Option {
	return func(r *Repository) { r.match = m }
}

// WithLogger sets the logger used by the cache.
func WithLogger(log *slog.Logger) Option {
	return func(r *Repository) { r.log = log }
}

// Repository is the catalog's read/write contract. Both modes share the same
// pagination and search rules and return the same results for the same data.
type Repository struct {
	store    Store
	resolver *Resolver
	cache    *Cache // nil in ModeDirect
	mode     Mode
	match    MatchMode
	log      *slog.Logger
}

// NewRepository constructs a Repository over store.
func NewRepository(store Store, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		mode:  ModeCached,
		match: MatchPrefix,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resolver = NewResolver(store)
	if r.mode == ModeCached {
		r.cache = NewCache(store, r.log)
	}
	return r
}

// Mode returns the configured read strategy.
func (r *Repository) Mode() Mode {
	return r.mode
}

// List returns one page of travels ordered by id.
func (r *Repository) List(ctx context.Context, pageSize, pageNum int) ([]Travel, error) {
	p, err := NewPage(pageSize, pageNum)
	if err != nil {
		return nil, err
	}
	if r.cache == nil {
		travels, err := r.store.FetchPage(ctx, p)
		if err != nil {
			return nil, err
		}
		return orEmpty(travels), nil
	}
	if err := r.cache.EnsurePopulated(ctx); err != nil {
		return nil, err
	}
	return r.cache.List(p), nil
}

// GetByID returns the travel with the given id, or nil if there is none.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Travel, error) {
	if r.cache == nil {
		return r.store.FetchByID(ctx, id)
	}
	if err := r.cache.EnsurePopulated(ctx); err != nil {
		return nil, err
	}
	t, ok := r.cache.Get(id)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// FindFirstByCountry returns the lowest-id travel whose country matches query,
// or nil if there is none.
func (r *Repository) FindFirstByCountry(ctx context.Context, query string) (*Travel, error) {
	s := Search{Query: query, Mode: r.match}
	if r.cache == nil {
		return r.store.SearchFirst(ctx, s)
	}
	if err := r.cache.EnsurePopulated(ctx); err != nil {
		return nil, err
	}
	t, ok := r.cache.FindFirstByCountry(s)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// FindByCountry returns one page of the travels whose country matches query.
func (r *Repository) FindByCountry(ctx context.Context, query string, pageSize, pageNum int) ([]Travel, error) {
	p, err := NewPage(pageSize, pageNum)
	if err != nil {
		return nil, err
	}
	s := Search{Query: query, Mode: r.match}
	if r.cache == nil {
		travels, err := r.store.SearchPage(ctx, s, p)
		if err != nil {
			return nil, err
		}
		return orEmpty(travels), nil
	}
	if err := r.cache.EnsurePopulated(ctx); err != nil {
		return nil, err
	}
	return r.cache.FindByCountry(s, p), nil
}

// Remove deletes a travel from the store and then from the cache.
// Removing an id that does not exist is not an error.
func (r *Repository) Remove(ctx context.Context, id int64) error {
	if r.cache == nil {
		return r.store.Delete(ctx, id)
	}
	return r.cache.Mutate(ctx, func() error {
		if err := r.store.Delete(ctx, id); err != nil {
			return err
		}
		r.cache.Remove(id)
		return nil
	})
}

// Add resolves the travel's country and town, inserts it, and returns the
// store-assigned id. Price and departure are first rounded to the precision
// the store keeps. It returns ErrUnresolvedReference when the country does
// not exist and ErrInvalidTravel when the price is out of range. The cache is
// only updated after the insert succeeds.
func (r *Repository) Add(ctx context.Context, nt NewTravel) (int64, error) {
	if r.cache == nil {
		t, err := r.insert(ctx, nt)
		return t.ID, err
	}

	var id int64
	err := r.cache.Mutate(ctx, func() error {
		t, err := r.insert(ctx, nt)
		if err != nil {
			return err
		}
		id = t.ID
		return r.cache.Insert(t)
	})
	return id, err
}

func (r *Repository) insert(ctx context.Context, nt NewTravel) (Travel, error) {
	nt, err := nt.normalized()
	if err != nil {
		return Travel{}, err
	}

	town, err := r.resolver.Resolve(ctx, nt.Country, nt.Town, nt.TownZipCode)
	if err != nil {
		return Travel{}, err
	}

	id, err := r.store.Insert(ctx, Record{
		Name:        nt.Name,
		Description: nt.Description,
		Departure:   nt.Departure,
		Price:       nt.Price,
		TownID:      town.ID,
		Picture:     nt.Picture,
	})
	if err != nil {
		return Travel{}, err
	}
	return nt.withID(id), nil
}

func orEmpty(travels []Travel) []Travel {
	if travels == nil {
		return []Travel{}
	}
	return travels
}
