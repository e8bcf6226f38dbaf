package api

import (
	"context"

	"github.com/neexbeast/travel-catalog/internal/idempotency"
	"github.com/neexbeast/travel-catalog/internal/travel"
)

// Catalog defines the travel repository operations needed by handlers.
type Catalog interface {
	List(ctx context.Context, pageSize, pageNum int) ([]travel.Travel, error)
	GetByID(ctx context.Context, id int64) (*travel.Travel, error)
	FindFirstByCountry(ctx context.Context, query string) (*travel.Travel, error)
	FindByCountry(ctx context.Context, query string, pageSize, pageNum int) ([]travel.Travel, error)
	Remove(ctx context.Context, id int64) error
	Add(ctx context.Context, nt travel.NewTravel) (int64, error)
}

// IdempotencyStore defines the replay store used by CreateTravel.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	Save(ctx context.Context, key string, rec idempotency.Record) error
}

// pinger is satisfied by anything the health check can probe.
type pinger interface {
	Ping(ctx context.Context) error
}
