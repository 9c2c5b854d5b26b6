package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.TeamRepository       = (*TeamRepository)(nil)
	_ ports.PortfolioRepository  = (*PortfolioRepository)(nil)
	_ ports.InitiativeRepository = (*InitiativeRepository)(nil)
	_ ports.HealthChecker        = (*DB)(nil)
)

// DB owns the stores of every aggregate kind.
type DB struct {
	closed atomic.Bool

	teams       *TeamRepository
	portfolios  *PortfolioRepository
	initiatives *InitiativeRepository
}

// New creates an empty in-memory database.
func New() *DB {
	db := &DB{}
	db.teams = &TeamRepository{
		members: newStore[memberRecord]("team", &db.closed),
		models:  newStore[operatingModelRecord]("operating model", &db.closed),
	}
	db.portfolios = &PortfolioRepository{
		portfolios: newStore[portfolioRecord]("portfolio", &db.closed),
	}
	db.initiatives = &InitiativeRepository{
		initiatives: newStore[initiativeRecord]("initiative", &db.closed),
	}
	return db
}

// Teams returns the team repository.
func (db *DB) Teams() *TeamRepository { return db.teams }

// Portfolios returns the portfolio repository.
func (db *DB) Portfolios() *PortfolioRepository { return db.portfolios }

// Initiatives returns the initiative repository.
func (db *DB) Initiatives() *InitiativeRepository { return db.initiatives }

// Close makes every later read and write fail with domain.ErrUnavailable.
func (db *DB) Close() {
	db.closed.Store(true)
}

// Name implements ports.HealthChecker.
func (db *DB) Name() string { return "memory" }

// HealthCheck implements ports.HealthChecker.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if db.closed.Load() {
		return fmt.Errorf("memory store closed: %w", domain.ErrUnavailable)
	}
	return nil
}
