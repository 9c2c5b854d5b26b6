package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/portfolio"
	"github.com/orgplan/orgplan/internal/ports"
)

type portfolioRecord = portfolio.PortfolioSnapshot

// PortfolioRepository stores portfolios with their programs, projects and
// tasks as one snapshot.
type PortfolioRepository struct {
	keys       sequence
	portfolios *store[portfolioRecord]
}

// NextPortfolioKey implements ports.PortfolioRepository.
func (r *PortfolioRepository) NextPortfolioKey(ctx context.Context) (int, error) {
	if err := r.portfolios.ready(ctx); err != nil {
		return 0, err
	}
	return r.keys.next(), nil
}

// GetPortfolio implements ports.PortfolioRepository.
func (r *PortfolioRepository) GetPortfolio(ctx context.Context, id uuid.UUID) (ports.Loaded[*portfolio.Portfolio], error) {
	rec, err := r.portfolios.get(ctx, id)
	if err != nil {
		return ports.Loaded[*portfolio.Portfolio]{}, err
	}
	p, err := portfolio.RehydratePortfolio(rec.snapshot)
	if err != nil {
		return ports.Loaded[*portfolio.Portfolio]{}, fmt.Errorf("rehydrating portfolio %s: %w", id, err)
	}
	return ports.Loaded[*portfolio.Portfolio]{Aggregate: p, Version: rec.version}, nil
}

// FindPortfolioByProgram implements ports.PortfolioRepository.
func (r *PortfolioRepository) FindPortfolioByProgram(ctx context.Context, programID uuid.UUID) (ports.Loaded[*portfolio.Portfolio], error) {
	recs, err := r.portfolios.all(ctx, func(s portfolioRecord) bool {
		return slices.ContainsFunc(s.Programs, func(ps portfolio.ProgramSnapshot) bool { return ps.ID == programID })
	})
	if err != nil {
		return ports.Loaded[*portfolio.Portfolio]{}, err
	}
	if len(recs) == 0 {
		return ports.Loaded[*portfolio.Portfolio]{}, fmt.Errorf("portfolio with program %s: %w", programID, domain.ErrNotFound)
	}
	p, err := portfolio.RehydratePortfolio(recs[0].snapshot)
	if err != nil {
		return ports.Loaded[*portfolio.Portfolio]{}, fmt.Errorf("rehydrating portfolio %s: %w", recs[0].snapshot.ID, err)
	}
	return ports.Loaded[*portfolio.Portfolio]{Aggregate: p, Version: recs[0].version}, nil
}

// SavePortfolio implements ports.PortfolioRepository.
func (r *PortfolioRepository) SavePortfolio(p ports.Loaded[*portfolio.Portfolio]) domain.Action {
	agg := p.Aggregate
	return r.portfolios.save(agg.ID(), p.Version, agg.Snapshot)
}
