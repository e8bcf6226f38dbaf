package travel_test

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neexbeast/travel-catalog/internal/travel"
)

var departure = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

// sampleTravels returns n travels whose ids are not contiguous, spread over
// France, Spain and Italy.
func sampleTravels(n int) []travel.Travel {
	countries := []string{"France", "Spain", "Italy"}
	towns := []string{"Bordeaux", "Sevilla", "Napoli"}
	out := make([]travel.Travel, n)
	for i := range out {
		c := i % len(countries)
		out[i] = travel.Travel{
			ID:          int64(i*3 + 2),
			Name:        fmt.Sprintf("Honeymoon %d", i),
			Description: "sea and sun",
			Departure:   departure.AddDate(0, 0, i),
			Price:       decimal.New(int64(100000+i), -2),
			Town:        towns[c],
			Country:     countries[c],
		}
	}
	return out
}

func sampleNewTravel() travel.NewTravel {
	return travel.NewTravel{
		Name:        "Test",
		Description: "blablabla",
		Departure:   departure,
		Price:       decimal.RequireFromString("1230.99"),
		Town:        "Bordeaux",
		Country:     "France",
		Picture:     "bordeaux.jpg",
		TownZipCode: "33000",
	}
}
