package travel

import "context"

// Store is the durable storage boundary used by the Repository.
// Sequences are ordered by travel identifier ascending. Single-record reads
// return nil, nil when nothing matches.
type Store interface {
	FetchAll(ctx context.Context) ([]Travel, error)
	FetchPage(ctx context.Context, p Page) ([]Travel, error)
	FetchByID(ctx context.Context, id int64) (*Travel, error)
	SearchFirst(ctx context.Context, s Search) (*Travel, error)
	SearchPage(ctx context.Context, s Search, p Page) ([]Travel, error)
	Insert(ctx context.Context, rec Record) (int64, error)
	// Delete removes a travel. Deleting an absent id is not an error.
	Delete(ctx context.Context, id int64) error

	referenceStore
}

// referenceStore is the part of Store the Resolver needs.
type referenceStore interface {
	// LookupCountryID returns found=false when no country has exactly that name.
	LookupCountryID(ctx context.Context, name string) (id int64, found bool, err error)
	// LookupTownID returns found=false when the country has no town with that name.
	LookupTownID(ctx context.Context, name string, countryID int64) (id int64, found bool, err error)
	InsertTown(ctx context.Context, town Town) (int64, error)
}
