package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/store"
)

const (
	tableModelRaceResults = "ml_model_race_results"
	tableModelPerformance = "ml_model_performance"
)

// StorePerformanceRepository implements PerformanceRepository over the data API.
type StorePerformanceRepository struct {
	client *store.Client
}

// NewStorePerformanceRepository creates a new model performance repository.
func NewStorePerformanceRepository(client *store.Client) PerformanceRepository {
	return &StorePerformanceRepository{client: client}
}

// UpsertRaceResults writes per-race model picks, merging on the natural key
// so replaying a race leaves the ledger unchanged.
func (r *StorePerformanceRepository) UpsertRaceResults(ctx context.Context, rows []*models.MLModelRaceResult) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.client.Upsert(ctx, tableModelRaceResults, "race_id,horse_name,model", rows); err != nil {
		return fmt.Errorf("failed to upsert model race results: %w", err)
	}
	return nil
}

// GetByModelAndDay retrieves every recorded pick for one model on one day.
func (r *StorePerformanceRepository) GetByModelAndDay(ctx context.Context, model, day string) ([]*models.MLModelRaceResult, error) {
	var rows []*models.MLModelRaceResult
	q := store.NewQuery().Eq("model", model).Eq("race_date", day)
	if err := r.client.Select(ctx, tableModelRaceResults, q, &rows); err != nil {
		return nil, fmt.Errorf("failed to query model race results: %w", err)
	}
	return rows, nil
}

// UpsertDaily writes a recomputed (model, day) aggregate.
func (r *StorePerformanceRepository) UpsertDaily(ctx context.Context, perf *models.MLModelPerformance) error {
	if err := r.client.Upsert(ctx, tableModelPerformance, "model,day", []*models.MLModelPerformance{perf}); err != nil {
		return fmt.Errorf("failed to upsert model performance: %w", err)
	}
	return nil
}
