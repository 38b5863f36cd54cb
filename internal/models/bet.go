package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetStatus represents the settlement state of a bet. Transitions are
// monotonic: pending moves to won or lost exactly once and never back.
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWon     BetStatus = "won"
	BetStatusLost    BetStatus = "lost"
)

// Bet is a user's simulated wager on a horse in a race. PotentialReturn is
// precomputed at placement time as stake multiplied by the decimal odds
// taken, and is the amount credited to the bankroll ledger on a win.
type Bet struct {
	ID              uuid.UUID       `json:"id" validate:"required"`
	UserID          uuid.UUID       `json:"user_id" validate:"required"`
	RaceID          uuid.UUID       `json:"race_id" validate:"required"`
	HorseID         *uuid.UUID      `json:"horse_id"`
	HorseName       string          `json:"horse_name" validate:"required"`
	Stake           decimal.Decimal `json:"stake" validate:"required"`
	Odds            decimal.Decimal `json:"odds" validate:"required"`
	PotentialReturn decimal.Decimal `json:"potential_return"`
	Status          BetStatus       `json:"status" validate:"required,oneof=pending won lost"`
	PlacedAt        time.Time       `json:"placed_at"`
	SettledAt       *time.Time      `json:"settled_at"`
}

// IsPending reports whether the bet is still awaiting settlement.
func (b *Bet) IsPending() bool {
	return b.Status == BetStatusPending
}

// IsTerminal reports whether the status is a settlement end state.
func (s BetStatus) IsTerminal() bool {
	return s == BetStatusWon || s == BetStatusLost
}
