package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/raceday/internal/metrics"
	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/repository"
)

// Pipeline wires the settlement stages together: finder, fetcher,
// propagator, settler and aggregator. Each race is an independent unit of
// work; partial progress is committed and never rolled back, relying on the
// idempotent writes underneath for at-least-once safety.
type Pipeline struct {
	finder     *Finder
	fetcher    *Fetcher
	propagator *Propagator
	settler    *Settler
	aggregator *Aggregator
	results    repository.ResultRepository
	entries    repository.EntryRepository
	interval   time.Duration
	deadline   time.Duration
	logger     *logrus.Logger
}

// PipelineConfig tunes a pipeline instance.
type PipelineConfig struct {
	// Interval is the default delay between provider calls.
	Interval time.Duration
	// Deadline bounds a whole invocation; zero means no bound.
	Deadline time.Duration
}

// NewPipeline creates the settlement pipeline.
func NewPipeline(
	finder *Finder,
	fetcher *Fetcher,
	propagator *Propagator,
	settler *Settler,
	aggregator *Aggregator,
	results repository.ResultRepository,
	entries repository.EntryRepository,
	cfg PipelineConfig,
	logger *logrus.Logger,
) *Pipeline {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 600 * time.Millisecond
	}

	return &Pipeline{
		finder:     finder,
		fetcher:    fetcher,
		propagator: propagator,
		settler:    settler,
		aggregator: aggregator,
		results:    results,
		entries:    entries,
		interval:   interval,
		deadline:   cfg.Deadline,
		logger:     logger,
	}
}

// Run executes one scheduled invocation. The returned summary is always
// usable; the error is non-nil only when the candidate scan itself failed
// and no race was attempted.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	metrics.PipelineRunsTotal.Inc()
	start := time.Now()
	defer func() {
		metrics.PipelineRunDuration.Observe(time.Since(start).Seconds())
	}()

	if p.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deadline)
		defer cancel()
	}

	races, err := p.finder.FindPending(ctx, opts)
	if err != nil {
		p.logger.WithError(err).Error("Pending race scan failed")
		return &RunSummary{Success: false, Results: []RaceOutcome{}}, err
	}
	if len(races) == 0 {
		return &RunSummary{Success: true, Results: []RaceOutcome{}}, nil
	}

	interval := p.interval
	if opts.RateMs > 0 {
		interval = time.Duration(opts.RateMs) * time.Millisecond
	}
	if opts.RaceID != nil {
		interval = 0
	}

	touchedDays := make(map[string]struct{})
	onSaved := func(ctx context.Context, race *models.Race) error {
		if err := p.handleSaved(ctx, race); err != nil {
			return err
		}
		touchedDays[race.RaceDate] = struct{}{}
		return nil
	}

	summary := p.fetcher.Run(ctx, races, interval, onSaved, p.finder.MarkNotReady)

	// Aggregates roll up per (model, day); recompute once per touched day
	// rather than per race.
	for day := range touchedDays {
		if err := p.aggregator.AggregateDay(ctx, day); err != nil {
			p.logger.WithError(err).WithField("day", day).Error("Daily accuracy aggregation failed")
		}
	}

	p.logger.WithFields(logrus.Fields{
		"processed": summary.ProcessedCount,
		"ready":     summary.ReadyCount,
		"not_ready": summary.NotReadyCount,
		"failed":    summary.FailedCount,
		"duration":  time.Since(start),
	}).Info("Settlement run complete")

	return summary, nil
}

// handleSaved runs the downstream stages for one race whose result the
// provider just persisted. The race counts as processed only when the
// primary writes (entry positions and bet transitions) succeed; selection
// and shortlist stragglers are left to later idempotent runs.
func (p *Pipeline) handleSaved(ctx context.Context, race *models.Race) error {
	result, err := p.results.GetByRaceID(ctx, race.ID)
	if err != nil {
		return fmt.Errorf("result row missing after save: %w", err)
	}
	runners, err := p.results.RunnersByRaceID(ctx, race.ID)
	if err != nil {
		return fmt.Errorf("failed to load runners: %w", err)
	}
	if len(runners) == 0 {
		return fmt.Errorf("result %s has no runners", result.ID)
	}

	report := p.propagator.Propagate(ctx, race, runners)
	if report.EntriesErr != nil {
		return fmt.Errorf("failed to propagate entry positions: %w", report.EntriesErr)
	}

	winner := models.WinnerOf(runners)
	if _, err := p.settler.SettleRace(ctx, race, winner); err != nil {
		if err == models.ErrNoWinner {
			// Void or abandoned race: leave bets pending for manual review.
			p.logger.WithField("race_id", race.ID).Warn("Result carries no winner, skipping settlement")
		} else {
			return fmt.Errorf("failed to settle bets: %w", err)
		}
	}

	entries, err := p.entries.GetByRaceID(ctx, race.ID)
	if err != nil {
		p.logger.WithError(err).WithField("race_id", race.ID).Error("Failed to load entries for accuracy ledger")
		return nil
	}
	if err := p.aggregator.RecordRace(ctx, race, entries, runners); err != nil {
		// Non-primary: the upsert key makes the next run repair this.
		p.logger.WithError(err).WithField("race_id", race.ID).Error("Failed to record model picks")
	}

	return nil
}
