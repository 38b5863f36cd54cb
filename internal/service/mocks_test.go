package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/provider"
)

// fixedClock pins Now to a single instant.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// MockRaceRepository is a mock implementation of RaceRepository
type MockRaceRepository struct {
	mock.Mock
}

func (m *MockRaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Race), args.Error(1)
}

func (m *MockRaceRepository) PendingResults(ctx context.Context, date string, limit int) ([]*models.Race, error) {
	args := m.Called(ctx, date, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Race), args.Error(1)
}

func (m *MockRaceRepository) PendingSettlement(ctx context.Context, date string, limit int) ([]*models.Race, error) {
	args := m.Called(ctx, date, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Race), args.Error(1)
}

// MockEntryRepository is a mock implementation of EntryRepository
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.RaceEntry, error) {
	args := m.Called(ctx, raceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RaceEntry), args.Error(1)
}

func (m *MockEntryRepository) SetFinishingPosition(ctx context.Context, raceID uuid.UUID, horseName string, position int, settledAt time.Time) error {
	args := m.Called(ctx, raceID, horseName, position, settledAt)
	return args.Error(0)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID) (*models.RaceResult, error) {
	args := m.Called(ctx, raceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RaceResult), args.Error(1)
}

func (m *MockResultRepository) RunnersByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.RaceRunner, error) {
	args := m.Called(ctx, raceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RaceRunner), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) GetPendingByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Bet, error) {
	args := m.Called(ctx, raceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) Settle(ctx context.Context, betID uuid.UUID, status models.BetStatus, settledAt time.Time) error {
	args := m.Called(ctx, betID, status, settledAt)
	return args.Error(0)
}

// MockBankrollRepository is a mock implementation of BankrollRepository
type MockBankrollRepository struct {
	mock.Mock
}

func (m *MockBankrollRepository) UpsertTransaction(ctx context.Context, tx *models.BankrollTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBankrollRepository) SumTransactions(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBankrollRepository) SetBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	args := m.Called(ctx, userID, amount, at)
	return args.Error(0)
}

// MockSelectionRepository is a mock implementation of SelectionRepository
type MockSelectionRepository struct {
	mock.Mock
}

func (m *MockSelectionRepository) SetFinishingPosition(ctx context.Context, raceID uuid.UUID, horseName string, position int) error {
	args := m.Called(ctx, raceID, horseName, position)
	return args.Error(0)
}

// MockShortlistRepository is a mock implementation of ShortlistRepository
type MockShortlistRepository struct {
	mock.Mock
}

func (m *MockShortlistRepository) SetFinishingPosition(ctx context.Context, raceID uuid.UUID, horseName string, position int) error {
	args := m.Called(ctx, raceID, horseName, position)
	return args.Error(0)
}

// MockPerformanceRepository is a mock implementation of PerformanceRepository
type MockPerformanceRepository struct {
	mock.Mock
}

func (m *MockPerformanceRepository) UpsertRaceResults(ctx context.Context, rows []*models.MLModelRaceResult) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockPerformanceRepository) GetByModelAndDay(ctx context.Context, model, day string) ([]*models.MLModelRaceResult, error) {
	args := m.Called(ctx, model, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MLModelRaceResult), args.Error(1)
}

func (m *MockPerformanceRepository) UpsertDaily(ctx context.Context, perf *models.MLModelPerformance) error {
	args := m.Called(ctx, perf)
	return args.Error(0)
}

// MockResultFetcher is a mock implementation of ResultFetcher
type MockResultFetcher struct {
	mock.Mock
}

func (m *MockResultFetcher) FetchResult(ctx context.Context, raceID uuid.UUID) (provider.Outcome, provider.Envelope, error) {
	args := m.Called(ctx, raceID)
	return args.Get(0).(provider.Outcome), args.Get(1).(provider.Envelope), args.Error(2)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
