package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/store"
)

const (
	tableRaceResults = "race_results"
	tableRaceRunners = "race_runners"
)

// StoreResultRepository implements ResultRepository over the data API.
type StoreResultRepository struct {
	client *store.Client
}

// NewStoreResultRepository creates a new race result repository.
func NewStoreResultRepository(client *store.Client) ResultRepository {
	return &StoreResultRepository{client: client}
}

// GetByRaceID retrieves the fetched result summary for a race.
func (r *StoreResultRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID) (*models.RaceResult, error) {
	var rows []*models.RaceResult
	q := store.NewQuery().Eq("race_id", raceID.String()).Limit(1)
	if err := r.client.Select(ctx, tableRaceResults, q, &rows); err != nil {
		return nil, fmt.Errorf("failed to get race result: %w", err)
	}
	if len(rows) == 0 {
		return nil, models.ErrNotFound
	}
	return rows[0], nil
}

// RunnersByRaceID retrieves the per-horse actual outcomes for a race.
func (r *StoreResultRepository) RunnersByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.RaceRunner, error) {
	var rows []*models.RaceRunner
	q := store.NewQuery().Eq("race_id", raceID.String()).Order("position", false)
	if err := r.client.Select(ctx, tableRaceRunners, q, &rows); err != nil {
		return nil, fmt.Errorf("failed to query race runners: %w", err)
	}
	return rows, nil
}
