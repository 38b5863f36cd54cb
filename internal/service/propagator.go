package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/raceday/internal/metrics"
	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/repository"
)

// Propagator writes a race's finishing positions into every record that
// denormalizes the outcome: race entries, user selections and shortlist
// items. The three destinations are disjoint tables and every write is
// idempotent, so they run in parallel and best-effort.
type Propagator struct {
	entries    repository.EntryRepository
	selections repository.SelectionRepository
	shortlist  repository.ShortlistRepository
	clock      Clock
	logger     *logrus.Logger
}

// NewPropagator creates a result propagator.
func NewPropagator(
	entries repository.EntryRepository,
	selections repository.SelectionRepository,
	shortlist repository.ShortlistRepository,
	clock Clock,
	logger *logrus.Logger,
) *Propagator {
	return &Propagator{
		entries:    entries,
		selections: selections,
		shortlist:  shortlist,
		clock:      clock,
		logger:     logger,
	}
}

// PropagationReport carries the first error per destination table; a nil
// field means every write to that table succeeded. Only the race entries are
// primary; selection and shortlist stragglers are repaired by later runs.
type PropagationReport struct {
	EntriesErr    error
	SelectionsErr error
	ShortlistErr  error
}

// Propagate writes each runner's finishing position into the three derived
// tables. A failure in one destination is logged and reported but never
// blocks the others.
func (p *Propagator) Propagate(ctx context.Context, race *models.Race, runners []*models.RaceRunner) PropagationReport {
	settledAt := p.clock.Now()
	report := PropagationReport{}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for _, runner := range runners {
			if runner.Position <= 0 {
				continue
			}
			if err := p.entries.SetFinishingPosition(ctx, race.ID, runner.HorseName, runner.Position, settledAt); err != nil {
				p.logFailure("race_entries", race, runner.HorseName, err)
				if report.EntriesErr == nil {
					report.EntriesErr = err
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		for _, runner := range runners {
			if runner.Position <= 0 {
				continue
			}
			if err := p.selections.SetFinishingPosition(ctx, race.ID, runner.HorseName, runner.Position); err != nil {
				p.logFailure("selections", race, runner.HorseName, err)
				if report.SelectionsErr == nil {
					report.SelectionsErr = err
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		for _, runner := range runners {
			if runner.Position <= 0 {
				continue
			}
			if err := p.shortlist.SetFinishingPosition(ctx, race.ID, runner.HorseName, runner.Position); err != nil {
				p.logFailure("shortlist_items", race, runner.HorseName, err)
				if report.ShortlistErr == nil {
					report.ShortlistErr = err
				}
			}
		}
	}()

	wg.Wait()
	return report
}

func (p *Propagator) logFailure(table string, race *models.Race, horse string, err error) {
	metrics.PropagationErrorsTotal.WithLabelValues(table).Inc()
	p.logger.WithError(err).WithFields(logrus.Fields{
		"race_id": race.ID,
		"table":   table,
		"horse":   horse,
	}).Error("Failed to propagate finishing position")
}
