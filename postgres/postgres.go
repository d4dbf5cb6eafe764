package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlantStore implements staging.Store using PostgreSQL via pgx.
type PlantStore struct {
	db *pgxpool.Pool
}

// New creates a new PlantStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PlantStore {
	return &PlantStore{db: db}
}
