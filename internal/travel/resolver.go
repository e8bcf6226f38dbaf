package travel

import (
	"context"
	"fmt"
)

// Resolver turns a (country, town) name pair into the foreign keys a travel
// row needs. Countries must already exist; towns are created on demand under
// their resolved country.
type Resolver struct {
	store referenceStore
}

// NewResolver constructs a Resolver on top of store.
func NewResolver(store referenceStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the town row for townName in countryName, creating the town
// if needed. It returns ErrUnresolvedReference, without writing anything, when
// the country does not exist.
func (r *Resolver) Resolve(ctx context.Context, countryName, townName, zipCode string) (Town, error) {
	countryID, found, err := r.store.LookupCountryID(ctx, countryName)
	if err != nil {
		return Town{}, err
	}
	if !found {
		return Town{}, fmt.Errorf("%w: country %q does not exist", ErrUnresolvedReference, countryName)
	}

	town := Town{Name: townName, CountryID: countryID, ZipCode: zipCode}

	townID, found, err := r.store.LookupTownID(ctx, townName, countryID)
	if err != nil {
		return Town{}, err
	}
	if found {
		town.ID = townID
		return town, nil
	}

	townID, err = r.store.InsertTown(ctx, town)
	if err != nil {
		return Town{}, err
	}
	town.ID = townID
	return town, nil
}
