package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/store"
)

const tableRaceEntries = "race_entries"

// StoreEntryRepository implements EntryRepository over the data API.
type StoreEntryRepository struct {
	client *store.Client
}

// NewStoreEntryRepository creates a new race entry repository.
func NewStoreEntryRepository(client *store.Client) EntryRepository {
	return &StoreEntryRepository{client: client}
}

// GetByRaceID retrieves all entries on a race's card.
func (r *StoreEntryRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.RaceEntry, error) {
	var rows []*models.RaceEntry
	q := store.NewQuery().Eq("race_id", raceID.String()).Order("horse_name", false)
	if err := r.client.Select(ctx, tableRaceEntries, q, &rows); err != nil {
		return nil, fmt.Errorf("failed to query race entries: %w", err)
	}
	return rows, nil
}

// SetFinishingPosition writes a horse's finishing position onto its entry.
// The name filter folds case because horseName arrives in the result feed's
// spelling while the entry row carries the card's; an exact match would PATCH
// zero rows and report success. Rewriting the same position is a no-op in
// effect, so retries are safe.
func (r *StoreEntryRepository) SetFinishingPosition(ctx context.Context, raceID uuid.UUID, horseName string, position int, settledAt time.Time) error {
	q := store.NewQuery().Eq("race_id", raceID.String()).Ilike("horse_name", strings.TrimSpace(horseName))
	patch := map[string]interface{}{
		"finishing_position": position,
		"settled_at":         settledAt.UTC().Format(time.RFC3339),
	}
	if err := r.client.Patch(ctx, tableRaceEntries, q, patch); err != nil {
		return fmt.Errorf("failed to set entry position: %w", err)
	}
	return nil
}
