package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bankroll is a user's notional balance. The balance itself is derived: it is
// rewritten from the sum of the user's bankroll transactions after each
// settlement rather than adjusted in place, so replayed settlements converge.
type Bankroll struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id" validate:"required"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Transaction reasons.
const (
	TxReasonBetWon = "bet_won"
	TxReasonTopUp  = "top_up"
)

// BankrollTransaction is one append-only ledger entry. Settlement credits are
// keyed by bet ID, making the credit idempotent under retried or overlapping
// scheduler runs.
type BankrollTransaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id" validate:"required"`
	BetID     *uuid.UUID      `json:"bet_id"`
	RaceID    *uuid.UUID      `json:"race_id"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Reason    string          `json:"reason" validate:"required"`
	CreatedAt time.Time       `json:"created_at"`
}
