// Package travel holds the catalog domain: travel records, the pagination and
// country search rules shared by every read path, the in-memory travel cache,
// foreign key resolution for inserts, and the Repository that ties them together.
package travel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Travel is a catalog destination record as served to callers.
// ID is zero until the store assigns one and never changes afterwards.
type Travel struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Departure   time.Time       `json:"departure"`
	Price       decimal.Decimal `json:"price"`
	Town        string          `json:"town"`
	Country     string          `json:"country"`
	Picture     string          `json:"picture,omitempty"`
}

// Persisted reports whether the store has assigned an identifier.
func (t Travel) Persisted() bool {
	return t.ID != 0
}

// NewTravel is the creation input for a travel. It never carries an identifier.
// TownZipCode is only used when the town does not exist yet and has to be created.
type NewTravel struct {
	Name        string
	Description string
	Departure   time.Time
	Price       decimal.Decimal
	Town        string
	Country     string
	Picture     string
	TownZipCode string
}

// Stored precision of a travel. Prices are kept with PriceScale decimal places
// and must be below MaxPrice in absolute value. Departures are kept in UTC
// with microsecond resolution.
const PriceScale = 2

// MaxPrice is the exclusive bound on a travel's absolute price.
var MaxPrice = decimal.New(1, 10)

// normalized returns n rounded to the precision the store keeps, so a cached
// copy reads back exactly like the stored row. Prices round half away from zero.
func (n NewTravel) normalized() (NewTravel, error) {
	n.Price = n.Price.Round(PriceScale)
	if n.Price.Abs().GreaterThanOrEqual(MaxPrice) {
		return NewTravel{}, fmt.Errorf("%w: price %s must be below %s", ErrInvalidTravel, n.Price, MaxPrice)
	}
	n.Departure = n.Departure.UTC().Truncate(time.Microsecond)
	return n, nil
}

// withID builds the persisted record for a store-assigned identifier.
func (n NewTravel) withID(id int64) Travel {
	return Travel{
		ID:          id,
		Name:        n.Name,
		Description: n.Description,
		Departure:   n.Departure,
		Price:       n.Price,
		Town:        n.Town,
		Country:     n.Country,
		Picture:     n.Picture,
	}
}

// Town is a town row. A town name is only unique within its country.
type Town struct {
	ID        int64
	Name      string
	CountryID int64
	ZipCode   string
}

// Record is the row written by Store.Insert once the town has been resolved.
type Record struct {
	Name        string
	Description string
	Departure   time.Time
	Price       decimal.Decimal
	TownID      int64
	Picture     string
}
