package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/organization"
	"github.com/orgplan/orgplan/internal/ports"
)

type memberRecord struct {
	kind     organization.MemberKind
	snapshot organization.Snapshot
}

type operatingModelRecord struct {
	id          uuid.UUID
	teamID      uuid.UUID
	dateRange   domain.DateRange
	methodology organization.Methodology
	sizing      organization.SizingMethod
}

// TeamRepository stores teams, teams of teams and operating models.
type TeamRepository struct {
	keys    sequence
	members *store[memberRecord]
	models  *store[operatingModelRecord]
}

// NextTeamKey implements ports.TeamRepository.
func (r *TeamRepository) NextTeamKey(ctx context.Context) (int, error) {
	if err := r.members.ready(ctx); err != nil {
		return 0, err
	}
	return r.keys.next(), nil
}

// GetMember implements ports.TeamRepository.
func (r *TeamRepository) GetMember(ctx context.Context, id uuid.UUID) (ports.Loaded[organization.Member], error) {
	rec, err := r.members.get(ctx, id)
	if err != nil {
		return ports.Loaded[organization.Member]{}, err
	}

	var m organization.Member
	switch rec.snapshot.kind {
	case organization.KindTeamOfTeams:
		m, err = organization.RehydrateTeamOfTeams(rec.snapshot.snapshot)
	default:
		m, err = organization.RehydrateTeam(rec.snapshot.snapshot)
	}
	if err != nil {
		return ports.Loaded[organization.Member]{}, fmt.Errorf("rehydrating team %s: %w", id, err)
	}
	return ports.Loaded[organization.Member]{Aggregate: m, Version: rec.version}, nil
}

// SaveMember implements ports.TeamRepository.
func (r *TeamRepository) SaveMember(m ports.Loaded[organization.Member]) domain.Action {
	member := m.Aggregate
	return r.members.save(member.ID(), m.Version, func() memberRecord {
		return memberRecord{kind: member.Kind(), snapshot: member.Snapshot()}
	})
}

// LatestOperatingModel implements ports.TeamRepository.
func (r *TeamRepository) LatestOperatingModel(ctx context.Context, teamID uuid.UUID) (ports.Loaded[*organization.OperatingModel], error) {
	recs, err := r.modelRecords(ctx, teamID)
	if err != nil {
		return ports.Loaded[*organization.OperatingModel]{}, err
	}
	if len(recs) == 0 {
		return ports.Loaded[*organization.OperatingModel]{},
			fmt.Errorf("operating model of team %s: %w", teamID, domain.ErrNotFound)
	}

	latest := recs[len(recs)-1]
	m, err := rehydrateModel(latest.snapshot)
	if err != nil {
		return ports.Loaded[*organization.OperatingModel]{}, err
	}
	return ports.Loaded[*organization.OperatingModel]{Aggregate: m, Version: latest.version}, nil
}

// OperatingModels implements ports.TeamRepository.
func (r *TeamRepository) OperatingModels(ctx context.Context, teamID uuid.UUID) ([]*organization.OperatingModel, error) {
	recs, err := r.modelRecords(ctx, teamID)
	if err != nil {
		return nil, err
	}
	out := make([]*organization.OperatingModel, 0, len(recs))
	for _, rec := range recs {
		m, err := rehydrateModel(rec.snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// SaveOperatingModel implements ports.TeamRepository.
func (r *TeamRepository) SaveOperatingModel(m ports.Loaded[*organization.OperatingModel]) domain.Action {
	model := m.Aggregate
	return r.models.save(model.ID(), m.Version, func() operatingModelRecord {
		return operatingModelRecord{
			id:          model.ID(),
			teamID:      model.TeamID(),
			dateRange:   model.DateRange(),
			methodology: model.Methodology(),
			sizing:      model.SizingMethod(),
		}
	})
}

// modelRecords returns the team's models ordered by start date.
func (r *TeamRepository) modelRecords(ctx context.Context, teamID uuid.UUID) ([]record[operatingModelRecord], error) {
	recs, err := r.models.all(ctx, func(s operatingModelRecord) bool { return s.teamID == teamID })
	if err != nil {
		return nil, err
	}
	slices.SortFunc(recs, func(a, b record[operatingModelRecord]) int {
		return a.snapshot.dateRange.Start().Compare(b.snapshot.dateRange.Start())
	})
	return recs, nil
}

func rehydrateModel(s operatingModelRecord) (*organization.OperatingModel, error) {
	m, err := organization.RehydrateOperatingModel(s.id, s.teamID, s.dateRange, s.methodology, s.sizing)
	if err != nil {
		return nil, fmt.Errorf("rehydrating operating model %s: %w", s.id, err)
	}
	return m, nil
}
