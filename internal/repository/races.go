package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/store"
)

// Table and view names in the backing store.
const (
	tableRaces              = "races"
	viewRacesWithoutResult  = "races_without_results"
	viewRacesPendingSettlem = "races_with_pending_bets"
)

// StoreRaceRepository implements RaceRepository over the data API.
type StoreRaceRepository struct {
	client *store.Client
}

// NewStoreRaceRepository creates a new race repository.
func NewStoreRaceRepository(client *store.Client) RaceRepository {
	return &StoreRaceRepository{client: client}
}

// GetByID retrieves a race by ID.
func (r *StoreRaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	var rows []*models.Race
	q := store.NewQuery().Eq("id", id.String()).Limit(1)
	if err := r.client.Select(ctx, tableRaces, q, &rows); err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	if len(rows) == 0 {
		return nil, models.ErrNotFound
	}
	return rows[0], nil
}

// PendingResults reads the precomputed "races without results" view for one
// date. The view keeps this O(pending) rather than a join over all races;
// the limit bounds worst-case provider load per run.
func (r *StoreRaceRepository) PendingResults(ctx context.Context, date string, limit int) ([]*models.Race, error) {
	var rows []*models.Race
	q := store.NewQuery().Eq("race_date", date).Order("off_time", false).Limit(limit)
	if err := r.client.Select(ctx, viewRacesWithoutResult, q, &rows); err != nil {
		return nil, fmt.Errorf("failed to query pending races: %w", err)
	}
	return rows, nil
}

// PendingSettlement reads the view of races whose result is already stored
// but which still hold pending bets. A race lands here when its downstream
// writes failed after the provider persisted the result; once its result
// exists it has left the no-result view, so this is the only way a scheduled
// run finds it again.
func (r *StoreRaceRepository) PendingSettlement(ctx context.Context, date string, limit int) ([]*models.Race, error) {
	var rows []*models.Race
	q := store.NewQuery().Eq("race_date", date).Order("off_time", false).Limit(limit)
	if err := r.client.Select(ctx, viewRacesPendingSettlem, q, &rows); err != nil {
		return nil, fmt.Errorf("failed to query races pending settlement: %w", err)
	}
	return rows, nil
}
