package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/raceday/internal/models"
	"github.com/yourusername/raceday/internal/racetime"
	"github.com/yourusername/raceday/internal/repository"
)

// Races the provider just reported unpublished are skipped for this long, so
// two close scheduler ticks don't burn quota on the same unpublished card.
// The TTL must stay under the scheduler period or steady-state lag grows.
const notReadyMemoTTL = 2 * time.Minute

// Finder selects the races whose result is due: no result recorded yet and
// off time plus the settle delay has elapsed in the configured civil time.
// Races already holding a result but with bets still pending are included
// too, so a run that failed mid-settlement is repaired on the next tick.
type Finder struct {
	races        repository.RaceRepository
	notReady     *cache.Cache
	loc          *time.Location
	settleDelay  time.Duration
	defaultLimit int
	clock        Clock
	logger       *logrus.Logger
}

// NewFinder creates a pending-race finder. timezone names the civil time the
// card's dates and off times are written in, e.g. "Europe/London".
func NewFinder(
	races repository.RaceRepository,
	settleDelay time.Duration,
	defaultLimit int,
	timezone string,
	clock Clock,
	logger *logrus.Logger,
) (*Finder, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	if settleDelay <= 0 {
		settleDelay = 20 * time.Minute
	}
	if defaultLimit <= 0 {
		defaultLimit = 50
	}

	return &Finder{
		races:        races,
		notReady:     cache.New(notReadyMemoTTL, notReadyMemoTTL*2),
		loc:          loc,
		settleDelay:  settleDelay,
		defaultLimit: defaultLimit,
		clock:        clock,
		logger:       logger,
	}, nil
}

// FindPending returns the capped, chronologically ordered candidate set for
// one run. An explicit race scope bypasses eligibility and the not-ready
// memo: an operator asking for one race means fetch it now.
func (f *Finder) FindPending(ctx context.Context, opts RunOptions) ([]*models.Race, error) {
	if opts.RaceID != nil {
		race, err := f.races.GetByID(ctx, *opts.RaceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load scoped race: %w", err)
		}
		return []*models.Race{race}, nil
	}

	now := f.clock.Now().In(f.loc)
	date := opts.TargetDate
	if date == "" {
		date = now.Format("2006-01-02")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = f.defaultLimit
	}

	candidates, err := f.races.PendingResults(ctx, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending races: %w", err)
	}

	// Races whose result landed but whose settlement died have left the
	// no-result view; rescanning them is the repair path for stragglers.
	stragglers, err := f.races.PendingSettlement(ctx, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find races pending settlement: %w", err)
	}
	candidates = dedupeRaces(candidates, stragglers)

	// A past date is due in its entirety; today's races are due once the
	// normalized off time plus the settle delay has passed.
	pastDay := date < now.Format("2006-01-02")
	cutoff := racetime.MinutesOfDay(now) - int(f.settleDelay.Minutes())

	eligible := make([]*models.Race, 0, len(candidates))
	for _, race := range candidates {
		if !pastDay && racetime.Minutes(race.OffTime) > cutoff {
			continue
		}
		if _, skip := f.notReady.Get(race.ID.String()); skip {
			f.logger.WithField("race_id", race.ID).Debug("Skipping race recently reported not ready")
			continue
		}
		eligible = append(eligible, race)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return racetime.Minutes(eligible[i].OffTime) < racetime.Minutes(eligible[j].OffTime)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	f.logger.WithFields(logrus.Fields{
		"date":       date,
		"candidates": len(candidates),
		"eligible":   len(eligible),
	}).Info("Pending race scan complete")

	return eligible, nil
}

func dedupeRaces(lists ...[]*models.Race) []*models.Race {
	seen := make(map[uuid.UUID]struct{})
	merged := make([]*models.Race, 0)
	for _, list := range lists {
		for _, race := range list {
			if _, dup := seen[race.ID]; dup {
				continue
			}
			seen[race.ID] = struct{}{}
			merged = append(merged, race)
		}
	}
	return merged
}

// MarkNotReady memoizes an unpublished result so the next scan within the
// TTL skips the race.
func (f *Finder) MarkNotReady(raceID uuid.UUID) {
	f.notReady.SetDefault(raceID.String(), struct{}{})
}
