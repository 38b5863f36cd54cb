package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/raceday/internal/metrics"
	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/provider"
)

// ResultFetcher is the slice of the provider client the fetcher needs.
type ResultFetcher interface {
	FetchResult(ctx context.Context, raceID uuid.UUID) (provider.Outcome, provider.Envelope, error)
}

// SavedHandler processes one race whose result the provider just persisted.
// A returned error means the race's primary writes failed and the race must
// be reported as failed; it is re-attempted on a later run.
type SavedHandler func(ctx context.Context, race *models.Race) error

// Fetcher walks the candidate set strictly sequentially, one provider call
// per race with a fixed inter-call delay, classifying every attempt. One
// race's failure never aborts the batch.
type Fetcher struct {
	provider ResultFetcher
	logger   *logrus.Logger
}

// NewFetcher creates a rate-limited result fetcher.
func NewFetcher(p ResultFetcher, logger *logrus.Logger) *Fetcher {
	return &Fetcher{provider: p, logger: logger}
}

// Run fetches every candidate race in order. interval is the delay between
// consecutive provider calls; zero disables throttling (used by tests and
// single-race runs). onSaved runs the downstream pipeline for a saved
// result; onNotReady memoizes unpublished races. When ctx expires the
// remaining candidates are simply left for the next scheduled run.
func (f *Fetcher) Run(
	ctx context.Context,
	races []*models.Race,
	interval time.Duration,
	onSaved SavedHandler,
	onNotReady func(uuid.UUID),
) *RunSummary {
	summary := &RunSummary{Success: true, Results: make([]RaceOutcome, 0, len(races))}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, race := range races {
		if err := limiter.Wait(ctx); err != nil {
			f.logger.WithField("remaining", len(races)-len(summary.Results)).
				Warn("Deadline reached, deferring remaining races to next run")
			break
		}

		log := f.logger.WithFields(logrus.Fields{
			"race_id": race.ID,
			"course":  race.Course,
			"off":     race.OffTime,
		})

		start := time.Now()
		outcome, env, err := f.provider.FetchResult(ctx, race.ID)
		metrics.ProviderCallDuration.Observe(time.Since(start).Seconds())

		switch outcome {
		case provider.OutcomeSaved:
			if handleErr := onSaved(ctx, race); handleErr != nil {
				log.WithError(handleErr).Error("Result saved but settlement failed")
				metrics.RacesProcessedTotal.WithLabelValues("failed").Inc()
				summary.FailedCount++
				summary.ReadyCount++
				summary.Results = append(summary.Results, RaceOutcome{
					RaceID: race.ID, Success: false, Code: codeSettlementFailed, Message: handleErr.Error(),
				})
				continue
			}
			log.Info("Race result saved and settled")
			metrics.RacesProcessedTotal.WithLabelValues("saved").Inc()
			summary.ReadyCount++
			summary.ProcessedCount++
			summary.Results = append(summary.Results, RaceOutcome{
				RaceID: race.ID, Success: true, Code: codeSaved, Message: env.Message,
			})

		case provider.OutcomeNotReady:
			log.Debug("Result not published yet")
			metrics.RacesProcessedTotal.WithLabelValues("not_ready").Inc()
			summary.NotReadyCount++
			if onNotReady != nil {
				onNotReady(race.ID)
			}
			summary.Results = append(summary.Results, RaceOutcome{
				RaceID: race.ID, Success: false, Code: provider.CodeNotAvailable, Message: env.Message,
			})

		default:
			log.WithError(err).Warn("Result fetch failed")
			metrics.RacesProcessedTotal.WithLabelValues("failed").Inc()
			summary.FailedCount++
			code := env.Code
			if code == "" {
				code = codeFetchFailed
			}
			msg := env.Message
			if msg == "" && err != nil {
				msg = err.Error()
			}
			summary.Results = append(summary.Results, RaceOutcome{
				RaceID: race.ID, Success: false, Code: code, Message: msg,
			})
		}
	}

	return summary
}
