package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yourusername/raceday/internal/store"
)

const (
	tableSelections     = "selections"
	tableShortlistItems = "shortlist_items"
)

// StoreSelectionRepository implements SelectionRepository over the data API.
type StoreSelectionRepository struct {
	client *store.Client
}

// NewStoreSelectionRepository creates a new selection repository.
func NewStoreSelectionRepository(client *store.Client) SelectionRepository {
	return &StoreSelectionRepository{client: client}
}

// SetFinishingPosition annotates matching selections with the race outcome.
func (r *StoreSelectionRepository) SetFinishingPosition(ctx context.Context, raceID uuid.UUID, horseName string, position int) error {
	return patchPosition(ctx, r.client, tableSelections, raceID, horseName, position)
}

// StoreShortlistRepository implements ShortlistRepository over the data API.
type StoreShortlistRepository struct {
	client *store.Client
}

// NewStoreShortlistRepository creates a new shortlist repository.
func NewStoreShortlistRepository(client *store.Client) ShortlistRepository {
	return &StoreShortlistRepository{client: client}
}

// SetFinishingPosition annotates matching shortlist items with the outcome.
func (r *StoreShortlistRepository) SetFinishingPosition(ctx context.Context, raceID uuid.UUID, horseName string, position int) error {
	return patchPosition(ctx, r.client, tableShortlistItems, raceID, horseName, position)
}

// patchPosition folds the name's case like the entry repository: the result
// feed's spelling must still hit rows written from the card.
func patchPosition(ctx context.Context, client *store.Client, table string, raceID uuid.UUID, horseName string, position int) error {
	q := store.NewQuery().Eq("race_id", raceID.String()).Ilike("horse_name", strings.TrimSpace(horseName))
	patch := map[string]interface{}{"finishing_position": position}
	if err := client.Patch(ctx, table, q, patch); err != nil {
		return fmt.Errorf("failed to set %s position: %w", table, err)
	}
	return nil
}
