// Package repository provides data access over the row-oriented store API.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/raceday/internal/models"
)

// RaceRepository defines the interface for race data access.
type RaceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error)
	// PendingResults returns races from the precomputed no-result view for a
	// calendar date, capped at limit.
	PendingResults(ctx context.Context, date string, limit int) ([]*models.Race, error)
	// PendingSettlement returns races whose result is stored but whose bets
	// are still pending, so a run that died between saving the result and
	// settling is repaired by the next scheduled run.
	PendingSettlement(ctx context.Context, date string, limit int) ([]*models.Race, error)
}

// EntryRepository defines the interface for race entry data access.
type EntryRepository interface {
	GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.RaceEntry, error)
	SetFinishingPosition(ctx context.Context, raceID uuid.UUID, horseName string, position int, settledAt time.Time) error
}

// ResultRepository defines the interface for fetched race results.
type ResultRepository interface {
	GetByRaceID(ctx context.Context, raceID uuid.UUID) (*models.RaceResult, error)
	RunnersByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.RaceRunner, error)
}

// BetRepository defines the interface for bet data access.
type BetRepository interface {
	GetPendingByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Bet, error)
	// Settle transitions a pending bet to a terminal status. Implementations
	// must filter on the pending status so a settled bet is never rewritten.
	Settle(ctx context.Context, betID uuid.UUID, status models.BetStatus, settledAt time.Time) error
}

// BankrollRepository defines the interface for bankroll and ledger access.
type BankrollRepository interface {
	UpsertTransaction(ctx context.Context, tx *models.BankrollTransaction) error
	SumTransactions(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	SetBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, at time.Time) error
}

// SelectionRepository annotates user selections with race outcomes.
type SelectionRepository interface {
	SetFinishingPosition(ctx context.Context, raceID uuid.UUID, horseName string, position int) error
}

// ShortlistRepository annotates shortlist items with race outcomes.
type ShortlistRepository interface {
	SetFinishingPosition(ctx context.Context, raceID uuid.UUID, horseName string, position int) error
}

// PerformanceRepository persists the model accuracy ledger.
type PerformanceRepository interface {
	UpsertRaceResults(ctx context.Context, rows []*models.MLModelRaceResult) error
	GetByModelAndDay(ctx context.Context, model, day string) ([]*models.MLModelRaceResult, error)
	UpsertDaily(ctx context.Context, perf *models.MLModelPerformance) error
}
