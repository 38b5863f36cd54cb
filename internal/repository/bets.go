package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/store"
)

const tableBets = "bets"

// StoreBetRepository implements BetRepository over the data API.
type StoreBetRepository struct {
	client *store.Client
}

// NewStoreBetRepository creates a new bet repository.
func NewStoreBetRepository(client *store.Client) BetRepository {
	return &StoreBetRepository{client: client}
}

// GetPendingByRaceID retrieves every unsettled bet on a race.
func (r *StoreBetRepository) GetPendingByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Bet, error) {
	var rows []*models.Bet
	q := store.NewQuery().
		Eq("race_id", raceID.String()).
		Eq("status", string(models.BetStatusPending)).
		Order("placed_at", false)
	if err := r.client.Select(ctx, tableBets, q, &rows); err != nil {
		return nil, fmt.Errorf("failed to query pending bets: %w", err)
	}
	return rows, nil
}

// Settle transitions a bet out of pending. The status filter makes the write
// conditional: a bet another run already settled matches zero rows, so the
// pending -> won|lost transition can never be replayed or reversed.
func (r *StoreBetRepository) Settle(ctx context.Context, betID uuid.UUID, status models.BetStatus, settledAt time.Time) error {
	if !status.IsTerminal() {
		return fmt.Errorf("refusing to settle bet %s to non-terminal status %q", betID, status)
	}

	q := store.NewQuery().
		Eq("id", betID.String()).
		Eq("status", string(models.BetStatusPending))
	patch := map[string]interface{}{
		"status":     string(status),
		"settled_at": settledAt.UTC().Format(time.RFC3339),
	}
	if err := r.client.Patch(ctx, tableBets, q, patch); err != nil {
		return fmt.Errorf("failed to settle bet: %w", err)
	}
	return nil
}
