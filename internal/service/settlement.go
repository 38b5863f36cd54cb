package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/raceday/internal/metrics"
	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/repository"
)

// Settler resolves every pending bet on a settled race to won or lost and
// credits winning returns through the bankroll ledger. Credits are ledger
// upserts keyed by bet ID and the balance is rewritten from the ledger sum,
// so a retried or concurrent settlement can never double-credit.
type Settler struct {
	bets      repository.BetRepository
	bankrolls repository.BankrollRepository
	clock     Clock
	logger    *logrus.Logger
}

// NewSettler creates a bet settlement engine.
func NewSettler(bets repository.BetRepository, bankrolls repository.BankrollRepository, clock Clock, logger *logrus.Logger) *Settler {
	return &Settler{bets: bets, bankrolls: bankrolls, clock: clock, logger: logger}
}

// SettlementReport summarizes one race's settlement.
type SettlementReport struct {
	Won    int
	Lost   int
	Failed int
}

// BetWins reports whether a bet backed the winning runner. Horse IDs decide
// when both sides carry one; otherwise the horse names are compared trimmed
// and case-insensitively, since card and result feeds disagree on casing.
func BetWins(bet *models.Bet, winner *models.RaceRunner) bool {
	if winner == nil {
		return false
	}
	if bet.HorseID != nil && winner.HorseID != nil {
		return *bet.HorseID == *winner.HorseID
	}
	return strings.EqualFold(strings.TrimSpace(bet.HorseName), strings.TrimSpace(winner.HorseName))
}

// SettleRace settles all pending bets on a race against its winning runner.
// Per-bet failures are counted and logged but never stop the remaining bets.
// A hard error is returned only when the pending bets cannot be listed at
// all, or when the race has no winning runner to settle against.
func (s *Settler) SettleRace(ctx context.Context, race *models.Race, winner *models.RaceRunner) (SettlementReport, error) {
	report := SettlementReport{}

	if winner == nil {
		return report, models.ErrNoWinner
	}

	pending, err := s.bets.GetPendingByRaceID(ctx, race.ID)
	if err != nil {
		return report, fmt.Errorf("failed to list pending bets: %w", err)
	}

	for _, bet := range pending {
		if BetWins(bet, winner) {
			if err := s.settleWin(ctx, bet); err != nil {
				s.logBetFailure(bet, err)
				report.Failed++
				continue
			}
			metrics.BetsSettledTotal.WithLabelValues("won").Inc()
			report.Won++
		} else {
			if err := s.bets.Settle(ctx, bet.ID, models.BetStatusLost, s.clock.Now()); err != nil {
				s.logBetFailure(bet, err)
				report.Failed++
				continue
			}
			metrics.BetsSettledTotal.WithLabelValues("lost").Inc()
			report.Lost++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"race_id": race.ID,
		"won":     report.Won,
		"lost":    report.Lost,
		"failed":  report.Failed,
	}).Info("Race settlement complete")

	return report, nil
}

// settleWin credits the ledger, rewrites the derived balance, and only then
// transitions the bet. The ordering matters: the pending-to-won transition is
// conditional and terminal, so it must be the last write. Any earlier failure
// leaves the bet pending, a later run repeats the sequence, and the
// bet-ID-keyed ledger upsert makes the repeat converge instead of crediting
// twice.
func (s *Settler) settleWin(ctx context.Context, bet *models.Bet) error {
	now := s.clock.Now()

	amount := bet.PotentialReturn
	if amount.IsZero() {
		amount = bet.Stake.Mul(bet.Odds)
	}

	betID := bet.ID
	raceID := bet.RaceID
	tx := &models.BankrollTransaction{
		ID:        uuid.New(),
		UserID:    bet.UserID,
		BetID:     &betID,
		RaceID:    &raceID,
		Amount:    amount,
		Reason:    models.TxReasonBetWon,
		CreatedAt: now,
	}
	if err := s.bankrolls.UpsertTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to credit bankroll ledger: %w", err)
	}
	metrics.BankrollCreditsTotal.Inc()

	balance, err := s.bankrolls.SumTransactions(ctx, bet.UserID)
	if err != nil {
		return fmt.Errorf("failed to recompute balance: %w", err)
	}
	if err := s.bankrolls.SetBalance(ctx, bet.UserID, balance, now); err != nil {
		return fmt.Errorf("failed to write balance: %w", err)
	}

	if err := s.bets.Settle(ctx, bet.ID, models.BetStatusWon, now); err != nil {
		return fmt.Errorf("failed to mark bet won: %w", err)
	}

	return nil
}

func (s *Settler) logBetFailure(bet *models.Bet, err error) {
	s.logger.WithError(err).WithFields(logrus.Fields{
		"bet_id":  bet.ID,
		"race_id": bet.RaceID,
		"user_id": bet.UserID,
	}).Error("Failed to settle bet")
}
