package travel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/travel-catalog/internal/travel"
)

var modes = []travel.Mode{travel.ModeCached, travel.ModeDirect}

func newRepo(t *testing.T, mode travel.Mode, ts ...travel.Travel) (*travel.Repository, *memStore) {
	t.Helper()
	store := newMemStore("France", "Spain", "Italy")
	store.seed(ts...)
	return travel.NewRepository(store, travel.WithMode(mode)), store
}

func requireSameTravel(t *testing.T, want travel.NewTravel, got *travel.Travel) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Description, got.Description)
	assert.True(t, want.Departure.Equal(got.Departure))
	assert.True(t, want.Price.Equal(got.Price), "price %s != %s", want.Price, got.Price)
	assert.Equal(t, want.Town, got.Town)
	assert.Equal(t, want.Country, got.Country)
	assert.Equal(t, want.Picture, got.Picture)
}

func TestRepository_List_CachedAndDirectAgree(t *testing.T) {
	data := sampleTravels(57)
	cached, _ := newRepo(t, travel.ModeCached, data...)
	direct, _ := newRepo(t, travel.ModeDirect, data...)
	ctx := context.Background()

	for size := travel.MinPageSize; size <= travel.MaxPageSize; size++ {
		for num := 0; num*size <= len(data)+size; num++ {
			a, err := cached.List(ctx, size, num)
			require.NoError(t, err)
			b, err := direct.List(ctx, size, num)
			require.NoError(t, err)
			require.Equal(t, b, a, "size=%d num=%d", size, num)
		}
	}
}

func TestRepository_FindByCountry_CachedAndDirectAgree(t *testing.T) {
	data := sampleTravels(40)
	ctx := context.Background()

	for _, match := range []travel.MatchMode{travel.MatchPrefix, travel.MatchSubstring} {
		storeA := newMemStore()
		storeA.seed(data...)
		storeB := newMemStore()
		storeB.seed(data...)
		cached := travel.NewRepository(storeA, travel.WithMode(travel.ModeCached), travel.WithMatchMode(match))
		direct := travel.NewRepository(storeB, travel.WithMode(travel.ModeDirect), travel.WithMatchMode(match))

		for _, q := range []string{"fra", "Spa", "al", "ain", "x"} {
			for num := 0; num < 4; num++ {
				a, err := cached.FindByCountry(ctx, q, 5, num)
				require.NoError(t, err)
				b, err := direct.FindByCountry(ctx, q, 5, num)
				require.NoError(t, err)
				require.Equal(t, b, a, "match=%s q=%s num=%d", match, q, num)
			}

			a, err := cached.FindFirstByCountry(ctx, q)
			require.NoError(t, err)
			b, err := direct.FindFirstByCountry(ctx, q)
			require.NoError(t, err)
			require.Equal(t, b, a, "match=%s q=%s", match, q)
		}
	}
}

func TestRepository_List_PagesCoverCollection(t *testing.T) {
	data := sampleTravels(23)
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			repo, _ := newRepo(t, mode, data...)
			seen := map[int64]bool{}
			var order []int64
			for num := 0; ; num++ {
				page, err := repo.List(context.Background(), 7, num)
				require.NoError(t, err)
				if len(page) == 0 {
					break
				}
				for _, tr := range page {
					require.False(t, seen[tr.ID], "id %d returned twice", tr.ID)
					seen[tr.ID] = true
					order = append(order, tr.ID)
				}
			}
			require.Len(t, order, len(data))
			for i, tr := range data {
				assert.Equal(t, tr.ID, order[i])
			}
		})
	}
}

func TestRepository_OutOfRangeTouchesNothing(t *testing.T) {
	bad := []struct{ size, num int }{{0, 0}, {51, 0}, {-1, 2}, {10, -1}}

	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			repo, store := newRepo(t, mode, sampleTravels(5)...)
			for _, b := range bad {
				_, err := repo.List(context.Background(), b.size, b.num)
				require.ErrorIs(t, err, travel.ErrOutOfRange)
				_, err = repo.FindByCountry(context.Background(), "Fra", b.size, b.num)
				require.ErrorIs(t, err, travel.ErrOutOfRange)
			}
			assert.Zero(t, store.calls.Load())
		})
	}
}

func TestRepository_AddThenGetByID(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			repo, _ := newRepo(t, mode, sampleTravels(4)...)
			ctx := context.Background()

			// Populate the cache first so the add has to update it.
			_, err := repo.List(ctx, 10, 0)
			require.NoError(t, err)

			nt := sampleNewTravel()
			id, err := repo.Add(ctx, nt)
			require.NoError(t, err)
			assert.NotZero(t, id)

			got, err := repo.GetByID(ctx, id)
			require.NoError(t, err)
			requireSameTravel(t, nt, got)
			assert.Equal(t, id, got.ID)
		})
	}
}

func TestRepository_AddBeforePopulateIsSeenOnce(t *testing.T) {
	repo, store := newRepo(t, travel.ModeCached, sampleTravels(2)...)
	ctx := context.Background()

	id, err := repo.Add(ctx, sampleNewTravel())
	require.NoError(t, err)

	all, err := repo.List(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, id, all[2].ID)
	assert.EqualValues(t, 1, store.fetchAllCalls.Load())
}

func TestRepository_Add_CachedCopyMatchesStoredRow(t *testing.T) {
	repo, store := newRepo(t, travel.ModeCached, sampleTravels(2)...)
	direct := travel.NewRepository(store, travel.WithMode(travel.ModeDirect))
	ctx := context.Background()
	_, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)

	nt := sampleNewTravel()
	nt.Price = decimal.RequireFromString("12.345")
	nt.Departure = time.Date(2026, 12, 1, 9, 0, 0, 123456789, time.FixedZone("EET", 2*3600))

	id, err := repo.Add(ctx, nt)
	require.NoError(t, err)

	cached, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, cached)
	stored, err := direct.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, "12.35", cached.Price.String())
	assert.True(t, stored.Price.Equal(cached.Price), "price %s != %s", stored.Price, cached.Price)
	assert.Equal(t, time.UTC, cached.Departure.Location())
	assert.True(t, time.Date(2026, 12, 1, 7, 0, 0, 123456000, time.UTC).Equal(cached.Departure), "departure %s", cached.Departure)
	assert.True(t, stored.Departure.Equal(cached.Departure))

	a, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	b, err := direct.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, a, len(b))
	for i := range a {
		assert.True(t, b[i].Price.Equal(a[i].Price))
		assert.True(t, b[i].Departure.Equal(a[i].Departure))
	}
}

func TestRepository_Add_PriceOutOfRange(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			repo, store := newRepo(t, mode)
			nt := sampleNewTravel()
			nt.Price = decimal.RequireFromString("9999999999.995")

			_, err := repo.Add(context.Background(), nt)
			require.ErrorIs(t, err, travel.ErrInvalidTravel)
			assert.Zero(t, store.insertCalls.Load())
			assert.Zero(t, store.townInserts.Load())
		})
	}
}

func TestRepository_Add_LargestPriceAccepted(t *testing.T) {
	repo, _ := newRepo(t, travel.ModeCached)
	nt := sampleNewTravel()
	nt.Price = decimal.RequireFromString("9999999999.994")

	id, err := repo.Add(context.Background(), nt)
	require.NoError(t, err)

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "9999999999.99", got.Price.String())
}

func TestRepository_Add_UnknownCountry(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			repo, store := newRepo(t, mode)
			nt := sampleNewTravel()
			nt.Country = "Narnia"

			_, err := repo.Add(context.Background(), nt)
			require.ErrorIs(t, err, travel.ErrUnresolvedReference)
			assert.Zero(t, store.insertCalls.Load())
			assert.Zero(t, store.townInserts.Load())
		})
	}
}

func TestRepository_Add_StoreFailureLeavesCache(t *testing.T) {
	repo, store := newRepo(t, travel.ModeCached, sampleTravels(3)...)
	ctx := context.Background()
	_, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)

	boom := errors.New("unique violation")
	store.insertErr = boom

	_, err = repo.Add(ctx, sampleNewTravel())
	require.ErrorIs(t, err, boom)

	all, err := repo.List(ctx, 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepository_RemoveThenGetByID(t *testing.T) {
	data := sampleTravels(3)
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			repo, _ := newRepo(t, mode, data...)
			ctx := context.Background()

			got, err := repo.GetByID(ctx, data[1].ID)
			require.NoError(t, err)
			require.NotNil(t, got)

			require.NoError(t, repo.Remove(ctx, data[1].ID))

			got, err = repo.GetByID(ctx, data[1].ID)
			require.NoError(t, err)
			assert.Nil(t, got)

			// Removing again, or removing an unknown id, is fine.
			require.NoError(t, repo.Remove(ctx, data[1].ID))
			require.NoError(t, repo.Remove(ctx, 424242))
		})
	}
}

func TestRepository_Remove_StoreFailureKeepsCachedRecord(t *testing.T) {
	data := sampleTravels(3)
	repo, store := newRepo(t, travel.ModeCached, data...)
	ctx := context.Background()

	boom := errors.New("connection reset")
	store.deleteErr = boom

	// First call populates the cache.
	_, err := repo.GetByID(ctx, data[0].ID)
	require.NoError(t, err)

	require.ErrorIs(t, repo.Remove(ctx, data[0].ID), boom)

	got, err := repo.GetByID(ctx, data[0].ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRepository_FindFirstByCountry(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			repo, _ := newRepo(t, mode, sampleTravels(6)...)
			ctx := context.Background()

			got, err := repo.FindFirstByCountry(ctx, "Fra")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "France", got.Country)

			got, err = repo.FindFirstByCountry(ctx, "Portugal")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestRepository_ConcurrentFirstListFetchesOnce(t *testing.T) {
	repo, store := newRepo(t, travel.ModeCached, sampleTravels(30)...)

	g, ctx := errgroup.WithContext(context.Background())
	for range 32 {
		g.Go(func() error {
			page, err := repo.List(ctx, 10, 1)
			if err != nil {
				return err
			}
			if len(page) != 10 {
				return errors.New("short page")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 1, store.fetchAllCalls.Load())
}

func TestRepository_CachedReadsDoNotHitStore(t *testing.T) {
	data := sampleTravels(5)
	repo, store := newRepo(t, travel.ModeCached, data...)
	ctx := context.Background()

	_, err := repo.List(ctx, 5, 0)
	require.NoError(t, err)
	before := store.calls.Load()

	_, err = repo.GetByID(ctx, data[0].ID)
	require.NoError(t, err)
	_, err = repo.FindFirstByCountry(ctx, "Ita")
	require.NoError(t, err)
	_, err = repo.FindByCountry(ctx, "Spa", 5, 0)
	require.NoError(t, err)

	assert.Equal(t, before, store.calls.Load())
}

func TestParseMode(t *testing.T) {
	m, err := travel.ParseMode("direct")
	require.NoError(t, err)
	assert.Equal(t, travel.ModeDirect, m)

	m, err = travel.ParseMode("CACHED")
	require.NoError(t, err)
	assert.Equal(t, travel.ModeCached, m)

	_, err = travel.ParseMode("sometimes")
	require.Error(t, err)
}
