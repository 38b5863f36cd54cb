package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/repository"
)

// Aggregator maintains the model accuracy ledger: one top-pick row per model
// per race, and a per-day aggregate recomputed in full from those rows.
type Aggregator struct {
	performance repository.PerformanceRepository
	clock       Clock
	logger      *logrus.Logger
}

// NewAggregator creates a model accuracy aggregator.
func NewAggregator(performance repository.PerformanceRepository, clock Clock, logger *logrus.Logger) *Aggregator {
	return &Aggregator{performance: performance, clock: clock, logger: logger}
}

// TopPick returns the entry a model assigns the highest win probability,
// with a fixed deterministic tie-break: higher ensemble probability, then
// shorter current odds, then lexically earlier horse name. Nil for an empty
// card.
func TopPick(entries []*models.RaceEntry, model string) *models.RaceEntry {
	var best *models.RaceEntry
	for _, entry := range entries {
		if best == nil || pickBefore(entry, best, model) {
			best = entry
		}
	}
	return best
}

func pickBefore(a, b *models.RaceEntry, model string) bool {
	pa, pb := a.ProbabilityFor(model), b.ProbabilityFor(model)
	if pa != pb {
		return pa > pb
	}
	if a.ProbEnsemble != b.ProbEnsemble {
		return a.ProbEnsemble > b.ProbEnsemble
	}
	if !a.CurrentOdds.Equal(b.CurrentOdds) {
		return a.CurrentOdds.LessThan(b.CurrentOdds)
	}
	return a.HorseName < b.HorseName
}

// RecordRace extracts each model's top pick for a settled race, joins it to
// the actual finishing order and upserts one ledger row per model. Keyed on
// (race, horse, model), a replayed race rewrites identical rows.
func (a *Aggregator) RecordRace(ctx context.Context, race *models.Race, entries []*models.RaceEntry, runners []*models.RaceRunner) error {
	if len(entries) == 0 || len(runners) == 0 {
		a.logger.WithField("race_id", race.ID).Warn("No entries or runners to record model picks for")
		return nil
	}

	positions := make(map[string]int, len(runners))
	for _, runner := range runners {
		if runner.Position > 0 {
			positions[normalizeHorse(runner.HorseName)] = runner.Position
		}
	}

	// The ensemble's designated predicted winner, when flagged on the card.
	var flagged *models.RaceEntry
	for _, entry := range entries {
		if entry.PredictedWinner {
			flagged = entry
			break
		}
	}

	now := a.clock.Now()
	rows := make([]*models.MLModelRaceResult, 0, len(models.AllModels))
	for _, model := range models.AllModels {
		pick := TopPick(entries, model)
		if pick == nil {
			continue
		}

		position, ran := positions[normalizeHorse(pick.HorseName)]
		if !ran {
			position = 0
		}
		isWinner := position == 1
		isTop3 := position >= 1 && position <= 3

		correct := isWinner
		if model == models.ModelEnsemble && flagged != nil {
			correct = positions[normalizeHorse(flagged.HorseName)] == 1
		}

		rows = append(rows, &models.MLModelRaceResult{
			ID:                   uuid.New(),
			RaceID:               race.ID,
			HorseName:            pick.HorseName,
			Model:                model,
			PredictedProbability: pick.ProbabilityFor(model),
			ActualPosition:       position,
			IsWinner:             isWinner,
			IsTop3:               isTop3,
			PredictionCorrect:    correct,
			RaceDate:             race.RaceDate,
			CreatedAt:            now,
		})
	}

	if err := a.performance.UpsertRaceResults(ctx, rows); err != nil {
		return fmt.Errorf("failed to record model picks: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"race_id": race.ID,
		"models":  len(rows),
	}).Debug("Model picks recorded")

	return nil
}

// AggregateDay recomputes every model's performance row for one calendar
// day from the underlying pick rows. Full recomputation, never an
// incremental counter update: re-running after a late or corrected result
// changes only that day's rows and matches a from-scratch recount.
func (a *Aggregator) AggregateDay(ctx context.Context, day string) error {
	for _, model := range models.AllModels {
		rows, err := a.performance.GetByModelAndDay(ctx, model, day)
		if err != nil {
			return fmt.Errorf("failed to load picks for %s/%s: %w", model, day, err)
		}
		if len(rows) == 0 {
			continue
		}

		perf := recompute(model, day, rows)
		perf.UpdatedAt = a.clock.Now()
		if err := a.performance.UpsertDaily(ctx, perf); err != nil {
			return fmt.Errorf("failed to write aggregate for %s/%s: %w", model, day, err)
		}
	}
	return nil
}

func recompute(model, day string, rows []*models.MLModelRaceResult) *models.MLModelPerformance {
	perf := &models.MLModelPerformance{
		ID:               uuid.New(),
		Model:            model,
		Day:              day,
		TotalPredictions: len(rows),
	}

	var confSum, confCorrect, confIncorrect float64
	var correctCount, incorrectCount int
	for _, row := range rows {
		if row.IsWinner {
			perf.WinnerCount++
		}
		if row.IsTop3 {
			perf.Top3Count++
		}
		confSum += row.PredictedProbability
		if row.PredictionCorrect {
			confCorrect += row.PredictedProbability
			correctCount++
		} else {
			confIncorrect += row.PredictedProbability
			incorrectCount++
		}
	}

	total := float64(len(rows))
	perf.WinnerAccuracy = 100 * float64(perf.WinnerCount) / total
	perf.Top3Accuracy = 100 * float64(perf.Top3Count) / total
	perf.AvgConfidence = confSum / total
	if correctCount > 0 {
		perf.AvgConfidenceCorrect = confCorrect / float64(correctCount)
	}
	if incorrectCount > 0 {
		perf.AvgConfidenceIncorrect = confIncorrect / float64(incorrectCount)
	}

	return perf
}

func normalizeHorse(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
