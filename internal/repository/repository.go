package repository

import (
	"fmt"

	"github.com/yourusername/raceday/internal/store"
)

// Repositories holds all repository implementations.
type Repositories struct {
	Races       RaceRepository
	Entries     EntryRepository
	Results     ResultRepository
	Bets        BetRepository
	Bankrolls   BankrollRepository
	Selections  SelectionRepository
	Shortlist   ShortlistRepository
	Performance PerformanceRepository
}

// NewRepositories creates and returns all repository implementations.
func NewRepositories(client *store.Client) (*Repositories, error) {
	if client == nil {
		return nil, fmt.Errorf("store client is required")
	}

	return &Repositories{
		Races:       NewStoreRaceRepository(client),
		Entries:     NewStoreEntryRepository(client),
		Results:     NewStoreResultRepository(client),
		Bets:        NewStoreBetRepository(client),
		Bankrolls:   NewStoreBankrollRepository(client),
		Selections:  NewStoreSelectionRepository(client),
		Shortlist:   NewStoreShortlistRepository(client),
		Performance: NewStorePerformanceRepository(client),
	}, nil
}
