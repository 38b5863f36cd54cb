package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RaceEntry is one row per (race, horse) pair carrying the per-model win
// probabilities published at card time. The finishing position and settlement
// timestamp are written exactly once per race by the result propagator.
type RaceEntry struct {
	ID                uuid.UUID       `json:"id" validate:"required"`
	RaceID            uuid.UUID       `json:"race_id" validate:"required"`
	HorseID           *uuid.UUID      `json:"horse_id"`
	HorseName         string          `json:"horse_name" validate:"required"`
	CurrentOdds       decimal.Decimal `json:"current_odds"`
	ProbGradientBoost float64         `json:"prob_gradient_boost" validate:"gte=0,lte=1"`
	ProbRandomForest  float64         `json:"prob_random_forest" validate:"gte=0,lte=1"`
	ProbNeuralNet     float64         `json:"prob_neural_net" validate:"gte=0,lte=1"`
	ProbBayesian      float64         `json:"prob_bayesian" validate:"gte=0,lte=1"`
	ProbFormRating    float64         `json:"prob_form_rating" validate:"gte=0,lte=1"`
	ProbEnsemble      float64         `json:"prob_ensemble" validate:"gte=0,lte=1"`
	PredictedWinner   bool            `json:"predicted_winner"`
	FinishingPosition *int            `json:"finishing_position"`
	SettledAt         *time.Time      `json:"settled_at"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ProbabilityFor returns the entry's win probability under the named model,
// or 0 for an unknown model name.
func (e *RaceEntry) ProbabilityFor(model string) float64 {
	switch model {
	case ModelGradientBoost:
		return e.ProbGradientBoost
	case ModelRandomForest:
		return e.ProbRandomForest
	case ModelNeuralNet:
		return e.ProbNeuralNet
	case ModelBayesian:
		return e.ProbBayesian
	case ModelFormRating:
		return e.ProbFormRating
	case ModelEnsemble:
		return e.ProbEnsemble
	}
	return 0
}

// IsSettled reports whether the entry already carries a finishing position.
func (e *RaceEntry) IsSettled() bool {
	return e.FinishingPosition != nil && e.SettledAt != nil
}
