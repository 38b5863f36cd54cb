package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/raceday/internal/models"
)

func TestBetWins(t *testing.T) {
	horseID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name   string
		bet    *models.Bet
		winner *models.RaceRunner
		want   bool
	}{
		{
			name:   "matching horse IDs win",
			bet:    &models.Bet{HorseID: &horseID, HorseName: "completely different"},
			winner: &models.RaceRunner{HorseID: &horseID, HorseName: "Thunder Bay"},
			want:   true,
		},
		{
			name:   "IDs decide even when names agree",
			bet:    &models.Bet{HorseID: &otherID, HorseName: "Thunder Bay"},
			winner: &models.RaceRunner{HorseID: &horseID, HorseName: "Thunder Bay"},
			want:   false,
		},
		{
			name:   "name match is case and whitespace insensitive",
			bet:    &models.Bet{HorseName: "  thunder bay "},
			winner: &models.RaceRunner{HorseName: "THUNDER BAY"},
			want:   true,
		},
		{
			name:   "different names lose",
			bet:    &models.Bet{HorseName: "Silver Mist"},
			winner: &models.RaceRunner{HorseName: "Thunder Bay"},
			want:   false,
		},
		{
			name:   "nil winner never wins",
			bet:    &models.Bet{HorseName: "Thunder Bay"},
			winner: nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BetWins(tt.bet, tt.winner))
		})
	}
}

func TestSettleRaceWinningBet(t *testing.T) {
	now := time.Date(2025, 6, 14, 14, 40, 0, 0, time.UTC)
	race := &models.Race{ID: uuid.New(), Course: "Ascot", OffTime: "02:15", RaceDate: "2025-06-14"}
	winner := &models.RaceRunner{RaceID: race.ID, HorseName: "Thunder Bay", Position: 1}
	userID := uuid.New()

	bet := &models.Bet{
		ID:              uuid.New(),
		UserID:          userID,
		RaceID:          race.ID,
		HorseName:       "Thunder Bay",
		Stake:           decimal.NewFromInt(10),
		Odds:            decimal.NewFromFloat(4.0),
		PotentialReturn: decimal.NewFromInt(40),
		Status:          models.BetStatusPending,
	}

	bets := new(MockBetRepository)
	bankrolls := new(MockBankrollRepository)
	bets.On("GetPendingByRaceID", mock.Anything, race.ID).Return([]*models.Bet{bet}, nil)
	bets.On("Settle", mock.Anything, bet.ID, models.BetStatusWon, now).Return(nil)
	bankrolls.On("UpsertTransaction", mock.Anything, mock.MatchedBy(func(tx *models.BankrollTransaction) bool {
		return tx.UserID == userID &&
			tx.BetID != nil && *tx.BetID == bet.ID &&
			tx.Amount.Equal(decimal.NewFromInt(40)) &&
			tx.Reason == models.TxReasonBetWon
	})).Return(nil)
	bankrolls.On("SumTransactions", mock.Anything, userID).Return(decimal.NewFromInt(140), nil)
	bankrolls.On("SetBalance", mock.Anything, userID, decimal.NewFromInt(140), now).Return(nil)

	s := NewSettler(bets, bankrolls, fixedClock{now: now}, testLogger())
	report, err := s.SettleRace(context.Background(), race, winner)

	require.NoError(t, err)
	assert.Equal(t, SettlementReport{Won: 1}, report)
	bets.AssertExpectations(t)
	bankrolls.AssertExpectations(t)
}

func TestSettleRaceLosingBet(t *testing.T) {
	now := time.Date(2025, 6, 14, 14, 40, 0, 0, time.UTC)
	race := &models.Race{ID: uuid.New(), Course: "Ascot", OffTime: "02:15", RaceDate: "2025-06-14"}
	winner := &models.RaceRunner{RaceID: race.ID, HorseName: "Thunder Bay", Position: 1}

	bet := &models.Bet{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		RaceID:    race.ID,
		HorseName: "Silver Mist",
		Stake:     decimal.NewFromInt(5),
		Odds:      decimal.NewFromInt(8),
		Status:    models.BetStatusPending,
	}

	bets := new(MockBetRepository)
	bankrolls := new(MockBankrollRepository)
	bets.On("GetPendingByRaceID", mock.Anything, race.ID).Return([]*models.Bet{bet}, nil)
	bets.On("Settle", mock.Anything, bet.ID, models.BetStatusLost, now).Return(nil)

	s := NewSettler(bets, bankrolls, fixedClock{now: now}, testLogger())
	report, err := s.SettleRace(context.Background(), race, winner)

	require.NoError(t, err)
	assert.Equal(t, SettlementReport{Lost: 1}, report)
	// A losing bet never touches the bankroll.
	bankrolls.AssertNotCalled(t, "UpsertTransaction", mock.Anything, mock.Anything)
	bankrolls.AssertNotCalled(t, "SetBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleRaceFallsBackToStakeTimesOdds(t *testing.T) {
	now := time.Date(2025, 6, 14, 14, 40, 0, 0, time.UTC)
	race := &models.Race{ID: uuid.New(), Course: "Ascot", OffTime: "02:15", RaceDate: "2025-06-14"}
	winner := &models.RaceRunner{RaceID: race.ID, HorseName: "Thunder Bay", Position: 1}
	userID := uuid.New()

	// Legacy rows without a precomputed return.
	bet := &models.Bet{
		ID:        uuid.New(),
		UserID:    userID,
		RaceID:    race.ID,
		HorseName: "Thunder Bay",
		Stake:     decimal.NewFromInt(10),
		Odds:      decimal.NewFromFloat(4.0),
		Status:    models.BetStatusPending,
	}

	bets := new(MockBetRepository)
	bankrolls := new(MockBankrollRepository)
	bets.On("GetPendingByRaceID", mock.Anything, race.ID).Return([]*models.Bet{bet}, nil)
	bets.On("Settle", mock.Anything, bet.ID, models.BetStatusWon, now).Return(nil)
	bankrolls.On("UpsertTransaction", mock.Anything, mock.MatchedBy(func(tx *models.BankrollTransaction) bool {
		return tx.Amount.Equal(decimal.NewFromInt(40))
	})).Return(nil)
	bankrolls.On("SumTransactions", mock.Anything, userID).Return(decimal.NewFromInt(40), nil)
	bankrolls.On("SetBalance", mock.Anything, userID, decimal.NewFromInt(40), now).Return(nil)

	s := NewSettler(bets, bankrolls, fixedClock{now: now}, testLogger())
	_, err := s.SettleRace(context.Background(), race, winner)

	require.NoError(t, err)
	bankrolls.AssertExpectations(t)
}

func TestSettleRaceNoWinner(t *testing.T) {
	race := &models.Race{ID: uuid.New(), Course: "Ascot", OffTime: "02:15", RaceDate: "2025-06-14"}

	bets := new(MockBetRepository)
	s := NewSettler(bets, new(MockBankrollRepository), fixedClock{now: time.Now()}, testLogger())
	_, err := s.SettleRace(context.Background(), race, nil)

	assert.ErrorIs(t, err, models.ErrNoWinner)
	// Bets stay pending for manual review.
	bets.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleWinLedgerFailureLeavesBetPendingForRetry(t *testing.T) {
	now := time.Date(2025, 6, 14, 14, 40, 0, 0, time.UTC)
	race := &models.Race{ID: uuid.New(), Course: "Ascot", OffTime: "02:15", RaceDate: "2025-06-14"}
	winner := &models.RaceRunner{RaceID: race.ID, HorseName: "Thunder Bay", Position: 1}
	userID := uuid.New()

	bet := &models.Bet{
		ID: uuid.New(), UserID: userID, RaceID: race.ID, HorseName: "Thunder Bay",
		Stake: decimal.NewFromInt(10), Odds: decimal.NewFromFloat(4.0),
		PotentialReturn: decimal.NewFromInt(40), Status: models.BetStatusPending,
	}

	bets := new(MockBetRepository)
	bankrolls := new(MockBankrollRepository)
	bets.On("GetPendingByRaceID", mock.Anything, race.ID).Return([]*models.Bet{bet}, nil)
	bankrolls.On("UpsertTransaction", mock.Anything, mock.Anything).
		Return(errors.New("store 503")).Once()

	s := NewSettler(bets, bankrolls, fixedClock{now: now}, testLogger())
	report, err := s.SettleRace(context.Background(), race, winner)

	require.NoError(t, err)
	assert.Equal(t, SettlementReport{Failed: 1}, report)
	// The terminal transition must not have happened: the bet still matches
	// the pending filter, so a later run can reach the credit again.
	bets.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// The retry repeats the whole sequence and converges: the ledger upsert
	// merges on bet_id, then the bet transitions exactly once.
	bankrolls.On("UpsertTransaction", mock.Anything, mock.MatchedBy(func(tx *models.BankrollTransaction) bool {
		return tx.BetID != nil && *tx.BetID == bet.ID && tx.Amount.Equal(decimal.NewFromInt(40))
	})).Return(nil).Once()
	bankrolls.On("SumTransactions", mock.Anything, userID).Return(decimal.NewFromInt(40), nil)
	bankrolls.On("SetBalance", mock.Anything, userID, decimal.NewFromInt(40), now).Return(nil)
	bets.On("Settle", mock.Anything, bet.ID, models.BetStatusWon, now).Return(nil).Once()

	report, err = s.SettleRace(context.Background(), race, winner)

	require.NoError(t, err)
	assert.Equal(t, SettlementReport{Won: 1}, report)
	bets.AssertExpectations(t)
	bankrolls.AssertExpectations(t)
}

func TestSettleRaceOneBetFailingDoesNotStopOthers(t *testing.T) {
	now := time.Date(2025, 6, 14, 14, 40, 0, 0, time.UTC)
	race := &models.Race{ID: uuid.New(), Course: "Ascot", OffTime: "02:15", RaceDate: "2025-06-14"}
	winner := &models.RaceRunner{RaceID: race.ID, HorseName: "Thunder Bay", Position: 1}

	broken := &models.Bet{ID: uuid.New(), UserID: uuid.New(), RaceID: race.ID, HorseName: "Silver Mist",
		Stake: decimal.NewFromInt(5), Odds: decimal.NewFromInt(2), Status: models.BetStatusPending}
	fine := &models.Bet{ID: uuid.New(), UserID: uuid.New(), RaceID: race.ID, HorseName: "Copper Beech",
		Stake: decimal.NewFromInt(5), Odds: decimal.NewFromInt(2), Status: models.BetStatusPending}

	bets := new(MockBetRepository)
	bets.On("GetPendingByRaceID", mock.Anything, race.ID).Return([]*models.Bet{broken, fine}, nil)
	bets.On("Settle", mock.Anything, broken.ID, models.BetStatusLost, now).Return(errors.New("conflict"))
	bets.On("Settle", mock.Anything, fine.ID, models.BetStatusLost, now).Return(nil)

	s := NewSettler(bets, new(MockBankrollRepository), fixedClock{now: now}, testLogger())
	report, err := s.SettleRace(context.Background(), race, winner)

	require.NoError(t, err)
	assert.Equal(t, SettlementReport{Lost: 1, Failed: 1}, report)
	bets.AssertExpectations(t)
}
