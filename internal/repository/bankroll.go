package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/store"
)

const (
	tableBankrolls            = "bankrolls"
	tableBankrollTransactions = "bankroll_transactions"
)

// StoreBankrollRepository implements BankrollRepository over the data API.
type StoreBankrollRepository struct {
	client *store.Client
}

// NewStoreBankrollRepository creates a new bankroll repository.
func NewStoreBankrollRepository(client *store.Client) BankrollRepository {
	return &StoreBankrollRepository{client: client}
}

// UpsertTransaction appends a ledger entry, merging on bet_id so a retried
// settlement credits a win exactly once.
func (r *StoreBankrollRepository) UpsertTransaction(ctx context.Context, tx *models.BankrollTransaction) error {
	if err := r.client.Upsert(ctx, tableBankrollTransactions, "bet_id", []*models.BankrollTransaction{tx}); err != nil {
		return fmt.Errorf("failed to upsert bankroll transaction: %w", err)
	}
	return nil
}

// SumTransactions recomputes a user's balance from the full ledger.
func (r *StoreBankrollRepository) SumTransactions(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var rows []struct {
		Amount decimal.Decimal `json:"amount"`
	}
	q := store.NewQuery().Eq("user_id", userID.String()).Select("amount")
	if err := r.client.Select(ctx, tableBankrollTransactions, q, &rows); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum bankroll transactions: %w", err)
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	return total, nil
}

// SetBalance rewrites the derived balance on the user's bankroll row.
func (r *StoreBankrollRepository) SetBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	q := store.NewQuery().Eq("user_id", userID.String())
	patch := map[string]interface{}{
		"current_amount": amount,
		"updated_at":     at.UTC().Format(time.RFC3339),
	}
	if err := r.client.Patch(ctx, tableBankrolls, q, patch); err != nil {
		return fmt.Errorf("failed to set bankroll balance: %w", err)
	}
	return nil
}
