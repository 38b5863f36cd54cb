package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/provider"
)

func testRaces(n int) []*models.Race {
	races := make([]*models.Race, n)
	for i := range races {
		races[i] = &models.Race{ID: uuid.New(), Course: "Ascot", OffTime: "02:15", RaceDate: "2025-06-14"}
	}
	return races
}

func TestFetcherRunClassifiesOutcomes(t *testing.T) {
	races := testRaces(3)

	p := new(MockResultFetcher)
	p.On("FetchResult", mock.Anything, races[0].ID).
		Return(provider.OutcomeSaved, provider.Envelope{Success: true, Message: "result saved"}, nil)
	p.On("FetchResult", mock.Anything, races[1].ID).
		Return(provider.OutcomeNotReady, provider.Envelope{Code: provider.CodeNotAvailable, Message: "Result not available yet"}, nil)
	p.On("FetchResult", mock.Anything, races[2].ID).
		Return(provider.OutcomeFailed, provider.Envelope{Code: "PROVIDER_ERROR", Message: "upstream 500"}, errors.New("status 502"))

	var notReady []uuid.UUID
	fetcher := NewFetcher(p, testLogger())
	summary := fetcher.Run(context.Background(), races, 0,
		func(ctx context.Context, race *models.Race) error { return nil },
		func(id uuid.UUID) { notReady = append(notReady, id) },
	)

	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Equal(t, 1, summary.ReadyCount)
	assert.Equal(t, 1, summary.NotReadyCount)
	assert.Equal(t, 1, summary.FailedCount)
	require.Len(t, summary.Results, 3)

	assert.True(t, summary.Results[0].Success)
	assert.Equal(t, "SAVED", summary.Results[0].Code)
	assert.False(t, summary.Results[1].Success)
	assert.Equal(t, provider.CodeNotAvailable, summary.Results[1].Code)
	assert.False(t, summary.Results[2].Success)
	assert.Equal(t, "PROVIDER_ERROR", summary.Results[2].Code)

	require.Len(t, notReady, 1)
	assert.Equal(t, races[1].ID, notReady[0])
}

func TestFetcherRunIsSequentialAndIsolated(t *testing.T) {
	races := testRaces(3)

	p := new(MockResultFetcher)
	var order []uuid.UUID
	for _, race := range races {
		race := race
		call := p.On("FetchResult", mock.Anything, race.ID)
		call.Run(func(args mock.Arguments) { order = append(order, race.ID) })
		if race == races[1] {
			call.Return(provider.OutcomeFailed, provider.Envelope{}, errors.New("connection reset"))
		} else {
			call.Return(provider.OutcomeSaved, provider.Envelope{Success: true}, nil)
		}
	}

	fetcher := NewFetcher(p, testLogger())
	summary := fetcher.Run(context.Background(), races, 0,
		func(ctx context.Context, race *models.Race) error { return nil }, nil)

	// The middle failure must not stop races after it.
	require.Len(t, order, 3)
	assert.Equal(t, []uuid.UUID{races[0].ID, races[1].ID, races[2].ID}, order)
	assert.Equal(t, 2, summary.ProcessedCount)
	assert.Equal(t, 1, summary.FailedCount)
	assert.Equal(t, "FETCH_FAILED", summary.Results[1].Code)
	assert.Equal(t, "connection reset", summary.Results[1].Message)
}

func TestFetcherRunSavedButSettlementFails(t *testing.T) {
	races := testRaces(1)

	p := new(MockResultFetcher)
	p.On("FetchResult", mock.Anything, races[0].ID).
		Return(provider.OutcomeSaved, provider.Envelope{Success: true}, nil)

	fetcher := NewFetcher(p, testLogger())
	summary := fetcher.Run(context.Background(), races, 0,
		func(ctx context.Context, race *models.Race) error { return errors.New("bets unreachable") }, nil)

	// The result landed but the race is reported failed for retry.
	assert.Equal(t, 0, summary.ProcessedCount)
	assert.Equal(t, 1, summary.ReadyCount)
	assert.Equal(t, 1, summary.FailedCount)
	require.Len(t, summary.Results, 1)
	assert.False(t, summary.Results[0].Success)
	assert.Equal(t, "SETTLEMENT_FAILED", summary.Results[0].Code)
}

func TestFetcherRunDefersOnCancelledContext(t *testing.T) {
	races := testRaces(2)

	p := new(MockResultFetcher)
	ctx, cancel := context.WithCancel(context.Background())
	p.On("FetchResult", mock.Anything, races[0].ID).
		Run(func(args mock.Arguments) { cancel() }).
		Return(provider.OutcomeSaved, provider.Envelope{Success: true}, nil)

	fetcher := NewFetcher(p, testLogger())
	summary := fetcher.Run(ctx, races, time.Hour,
		func(ctx context.Context, race *models.Race) error { return nil }, nil)

	// The second race waits out the interval against a dead context and is
	// deferred to the next run, not reported failed.
	require.Len(t, summary.Results, 1)
	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Equal(t, 0, summary.FailedCount)
	p.AssertNumberOfCalls(t, "FetchResult", 1)
}

func TestFetcherRunEmptyCandidateSet(t *testing.T) {
	fetcher := NewFetcher(new(MockResultFetcher), testLogger())
	summary := fetcher.Run(context.Background(), nil, 0,
		func(ctx context.Context, race *models.Race) error { return nil }, nil)

	assert.True(t, summary.Success)
	assert.Empty(t, summary.Results)
}
