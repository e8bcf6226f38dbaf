// Package storage is the Postgres implementation of the catalog's store
// boundary, plus connection and schema migration helpers.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/neexbeast/travel-catalog/internal/travel"
)

// Querier abstracts the subset of pgxpool.Pool used by Gateway.
// pgx.Tx satisfies it too, which integration tests use for rollback isolation.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Gateway provides database access for travels, towns and countries.
type Gateway struct {
	q Querier
}

var _ travel.Store = (*Gateway)(nil)

// NewGateway constructs a Gateway backed by the given pool.
func NewGateway(pool *pgxpool.Pool) *Gateway {
	return &Gateway{q: pool}
}

// NewGatewayWithQuerier constructs a Gateway with a custom Querier (for tests).
func NewGatewayWithQuerier(q Querier) *Gateway {
	return &Gateway{q: q}
}

// A travel's country is the country of its town.
const selectTravels = `
	SELECT t.id, t.name, t.description, t.departure, t.price::text,
	       tw.name, c.name, COALESCE(t.picture, '')
	FROM travels t
	JOIN towns tw ON tw.id = t.town_id
	JOIN countries c ON c.id = tw.country_id
`

// countryMatches folds only ASCII letters, like travel.Search, so the result
// does not depend on the database collation.
const countryMatches = `WHERE translate(c.name, 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz') LIKE $1 ESCAPE '\'`

// FetchAll returns every travel ordered by id.
func (g *Gateway) FetchAll(ctx context.Context) ([]travel.Travel, error) {
	return g.queryTravels(ctx, "fetching all travels", selectTravels+`ORDER BY t.id`)
}

// FetchPage returns one page of travels ordered by id.
func (g *Gateway) FetchPage(ctx context.Context, p travel.Page) ([]travel.Travel, error) {
	const q = selectTravels + `ORDER BY t.id OFFSET $1 LIMIT $2`
	return g.queryTravels(ctx, "fetching travel page", q, p.Offset(), p.Size)
}

// FetchByID returns the travel with the given id, or nil, nil when it does not exist.
func (g *Gateway) FetchByID(ctx context.Context, id int64) (*travel.Travel, error) {
	const q = selectTravels + `WHERE t.id = $1`

	t, err := scanTravel(g.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying travel %d: %w", id, err)
	}
	return &t, nil
}

// SearchFirst returns the lowest-id travel whose country matches s, or nil, nil.
func (g *Gateway) SearchFirst(ctx context.Context, s travel.Search) (*travel.Travel, error) {
	const q = selectTravels + countryMatches + ` ORDER BY t.id LIMIT 1`

	t, err := scanTravel(g.q.QueryRow(ctx, q, s.Pattern()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("searching travel by country %q: %w", s.Query, err)
	}
	return &t, nil
}

// SearchPage returns one page of the travels whose country matches s, ordered by id.
func (g *Gateway) SearchPage(ctx context.Context, s travel.Search, p travel.Page) ([]travel.Travel, error) {
	const q = selectTravels + countryMatches + ` ORDER BY t.id OFFSET $2 LIMIT $3`
	return g.queryTravels(ctx, fmt.Sprintf("searching travels by country %q", s.Query), q, s.Pattern(), p.Offset(), p.Size)
}

// Insert writes a travel row and returns its id. An empty picture is stored as NULL.
func (g *Gateway) Insert(ctx context.Context, rec travel.Record) (int64, error) {
	const q = `
		INSERT INTO travels (name, description, departure, price, town_id, picture)
		VALUES ($1, $2, $3, $4::numeric, $5, NULLIF($6, ''))
		RETURNING id
	`

	var id int64
	err := g.q.QueryRow(ctx, q,
		rec.Name,
		rec.Description,
		rec.Departure,
		rec.Price.String(),
		rec.TownID,
		rec.Picture,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting travel %q: %w", rec.Name, err)
	}
	return id, nil
}

// Delete removes a travel. Deleting an id that does not exist is not an error.
func (g *Gateway) Delete(ctx context.Context, id int64) error {
	if _, err := g.q.Exec(ctx, `DELETE FROM travels WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting travel %d: %w", id, err)
	}
	return nil
}

// LookupCountryID finds a country by exact name.
func (g *Gateway) LookupCountryID(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := g.q.QueryRow(ctx, `SELECT id FROM countries WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("looking up country %q: %w", name, err)
	}
	return id, true, nil
}

// LookupTownID finds a town by name within a country.
func (g *Gateway) LookupTownID(ctx context.Context, name string, countryID int64) (int64, bool, error) {
	const q = `SELECT id FROM towns WHERE name = $1 AND country_id = $2`

	var id int64
	err := g.q.QueryRow(ctx, q, name, countryID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("looking up town %q in country %d: %w", name, countryID, err)
	}
	return id, true, nil
}

// InsertTown creates a town under its country and returns the id.
// If a concurrent insert created the same town first, that row's id is returned.
func (g *Gateway) InsertTown(ctx context.Context, town travel.Town) (int64, error) {
	const q = `
		INSERT INTO towns (name, country_id, zip_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, country_id) DO UPDATE
		SET name = EXCLUDED.name
		RETURNING id
	`

	var id int64
	if err := g.q.QueryRow(ctx, q, town.Name, town.CountryID, town.ZipCode).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting town %q in country %d: %w", town.Name, town.CountryID, err)
	}
	return id, nil
}

func (g *Gateway) queryTravels(ctx context.Context, what, q string, args ...any) ([]travel.Travel, error) {
	rows, err := g.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	results := []travel.Travel{}
	for rows.Next() {
		t, err := scanTravel(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scanning travel row: %w", what, err)
		}
		results = append(results, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterating travel rows: %w", what, err)
	}

	return results, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTravel(s scanner) (travel.Travel, error) {
	var (
		t     travel.Travel
		price string
	)

	if err := s.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.Departure,
		&price,
		&t.Town,
		&t.Country,
		&t.Picture,
	); err != nil {
		return travel.Travel{}, err
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return travel.Travel{}, fmt.Errorf("parsing price %q of travel %d: %w", price, t.ID, err)
	}
	t.Price = p
	t.Departure = t.Departure.UTC()
	return t, nil
}
