package travel_test

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neexbeast/travel-catalog/internal/travel"
)

// memStore is an in-memory travel.Store. It evaluates searches and pages with
// the same rules the Postgres gateway pushes down into SQL.
type memStore struct {
	mu        sync.Mutex
	travels   map[int64]travel.Travel
	countries map[string]int64
	towns     map[townKey]travel.Town
	nextID    int64
	nextTown  int64

	calls         atomic.Int32
	fetchAllCalls atomic.Int32
	insertCalls   atomic.Int32
	townInserts   atomic.Int32

	// fetchAllHook runs at the start of FetchAll when set.
	fetchAllHook func(ctx context.Context) error
	insertErr    error
	deleteErr    error
}

type townKey struct {
	name      string
	countryID int64
}

var _ travel.Store = (*memStore)(nil)

func newMemStore(countries ...string) *memStore {
	s := &memStore{
		travels:   map[int64]travel.Travel{},
		countries: map[string]int64{},
		towns:     map[townKey]travel.Town{},
	}
	for i, c := range countries {
		s.countries[c] = int64(i + 1)
	}
	return s
}

// seed stores t as-is, keeping its id.
func (s *memStore) seed(ts ...travel.Travel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range ts {
		s.travels[t.ID] = t
		if t.ID > s.nextID {
			s.nextID = t.ID
		}
	}
}

func (s *memStore) sorted() []travel.Travel {
	out := make([]travel.Travel, 0, len(s.travels))
	for _, t := range s.travels {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b travel.Travel) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *memStore) matching(q travel.Search) []travel.Travel {
	var out []travel.Travel
	for _, t := range s.sorted() {
		if q.Matches(t.Country) {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) FetchAll(ctx context.Context) ([]travel.Travel, error) {
	s.calls.Add(1)
	s.fetchAllCalls.Add(1)
	if s.fetchAllHook != nil {
		if err := s.fetchAllHook(ctx); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(), nil
}

func (s *memStore) FetchPage(_ context.Context, p travel.Page) ([]travel.Travel, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(travel.Paginate(s.sorted(), p)), nil
}

func (s *memStore) FetchByID(_ context.Context, id int64) (*travel.Travel, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.travels[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *memStore) SearchFirst(_ context.Context, q travel.Search) (*travel.Travel, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.matching(q)
	if len(m) == 0 {
		return nil, nil
	}
	return &m[0], nil
}

func (s *memStore) SearchPage(_ context.Context, q travel.Search, p travel.Page) ([]travel.Travel, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(travel.Paginate(s.matching(q), p)), nil
}

func (s *memStore) Insert(_ context.Context, rec travel.Record) (int64, error) {
	s.calls.Add(1)
	s.insertCalls.Add(1)
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var town travel.Town
	for _, tw := range s.towns {
		if tw.ID == rec.TownID {
			town = tw
		}
	}
	var country string
	for name, id := range s.countries {
		if id == town.CountryID {
			country = name
		}
	}

	// NUMERIC(12,2) and TIMESTAMPTZ columns.
	s.nextID++
	s.travels[s.nextID] = travel.Travel{
		ID:          s.nextID,
		Name:        rec.Name,
		Description: rec.Description,
		Departure:   rec.Departure.UTC().Truncate(time.Microsecond),
		Price:       rec.Price.Round(2),
		Town:        town.Name,
		Country:     country,
		Picture:     rec.Picture,
	}
	return s.nextID, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.calls.Add(1)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.travels, id)
	return nil
}

func (s *memStore) LookupCountryID(_ context.Context, name string) (int64, bool, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.countries[name]
	return id, ok, nil
}

func (s *memStore) LookupTownID(_ context.Context, name string, countryID int64) (int64, bool, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	tw, ok := s.towns[townKey{name, countryID}]
	return tw.ID, ok, nil
}

func (s *memStore) InsertTown(_ context.Context, town travel.Town) (int64, error) {
	s.calls.Add(1)
	s.townInserts.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTown++
	town.ID = s.nextTown
	s.towns[townKey{town.Name, town.CountryID}] = town
	return town.ID, nil
}
