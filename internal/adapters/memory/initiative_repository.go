package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/strategy"
	"github.com/orgplan/orgplan/internal/ports"
)

type initiativeRecord = strategy.Snapshot

// InitiativeRepository stores strategic initiatives with their KPIs.
type InitiativeRepository struct {
	keys        sequence
	initiatives *store[initiativeRecord]
}

// NextInitiativeKey implements ports.InitiativeRepository.
func (r *InitiativeRepository) NextInitiativeKey(ctx context.Context) (int, error) {
	if err := r.initiatives.ready(ctx); err != nil {
		return 0, err
	}
	return r.keys.next(), nil
}

// GetInitiative implements ports.InitiativeRepository.
func (r *InitiativeRepository) GetInitiative(ctx context.Context, id uuid.UUID) (ports.Loaded[*strategy.Initiative], error) {
	rec, err := r.initiatives.get(ctx, id)
	if err != nil {
		return ports.Loaded[*strategy.Initiative]{}, err
	}
	in, err := strategy.Rehydrate(rec.snapshot)
	if err != nil {
		return ports.Loaded[*strategy.Initiative]{}, fmt.Errorf("rehydrating initiative %s: %w", id, err)
	}
	return ports.Loaded[*strategy.Initiative]{Aggregate: in, Version: rec.version}, nil
}

// SaveInitiative implements ports.InitiativeRepository.
func (r *InitiativeRepository) SaveInitiative(in ports.Loaded[*strategy.Initiative]) domain.Action {
	agg := in.Aggregate
	return r.initiatives.save(agg.ID(), in.Version, agg.Snapshot)
}
